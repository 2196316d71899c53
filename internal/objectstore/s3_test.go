package objectstore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicer/internal/objectstore"
)

type received struct {
	mu          sync.Mutex
	path        string
	contentType string
	body        string
}

func fakeS3(t *testing.T, status int) (*httptest.Server, *received) {
	t.Helper()

	got := &received{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)

		got.mu.Lock()
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.body = string(b)
		got.mu.Unlock()

		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(status)
	}))
	t.Cleanup(ts.Close)

	return ts, got
}

func config(endpoint string) objectstore.Config {
	return objectstore.Config{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		Bucket:          "invoices",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
	}
}

func TestS3_Upload(t *testing.T) {
	ts, got := fakeS3(t, http.StatusOK)

	store, err := objectstore.NewS3(config(ts.URL))
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "logos/acme.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, ts.URL+"/invoices/logos/acme.png", url)
	assert.Equal(t, "/invoices/logos/acme.png", got.path)
	assert.Equal(t, "image/png", got.contentType)
	assert.Equal(t, "png-bytes", got.body)
}

func TestS3_Upload_PublicURL(t *testing.T) {
	ts, _ := fakeS3(t, http.StatusOK)

	cfg := config(ts.URL)
	cfg.PublicURL = "https://cdn.example.com/public/"

	store, err := objectstore.NewS3(cfg)
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "invoices/20260310_INV-1.pdf", "application/pdf", strings.NewReader("%PDF-"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/public/invoices/20260310_INV-1.pdf", url)
}

func TestS3_Upload_ServerError(t *testing.T) {
	ts, _ := fakeS3(t, http.StatusForbidden)

	store, err := objectstore.NewS3(config(ts.URL))
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "k", "text/plain", strings.NewReader("x"))
	assert.ErrorContains(t, err, "failed to upload to S3")
}

func TestS3_BaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  objectstore.Config
		want string
	}{
		{name: "PublicURL", cfg: objectstore.Config{PublicURL: "https://cdn.example.com/public/"}, want: "https://cdn.example.com/public"},
		{name: "Endpoint", cfg: objectstore.Config{Endpoint: "http://minio:9000/"}, want: "http://minio:9000/invoices"},
		{name: "AWS", cfg: objectstore.Config{Region: "eu-west-1"}, want: "https://invoices.s3.eu-west-1.amazonaws.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Bucket = "invoices"
			cfg.AccessKeyID = "test"
			cfg.SecretAccessKey = "secret"

			store, err := objectstore.NewS3(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.BaseURL())
		})
	}
}

func TestNewS3_NotConfigured(t *testing.T) {
	_, err := objectstore.NewS3(objectstore.Config{Bucket: "invoices"})
	assert.ErrorIs(t, err, objectstore.ErrNotConfigured)
}
