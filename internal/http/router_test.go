package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/invoicer/internal/assist"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	clientStore "github.com/MrJamesThe3rd/invoicer/internal/client/store"
	"github.com/MrJamesThe3rd/invoicer/internal/export"
	apihttp "github.com/MrJamesThe3rd/invoicer/internal/http"
	assistHandler "github.com/MrJamesThe3rd/invoicer/internal/http/assist"
	clientHandler "github.com/MrJamesThe3rd/invoicer/internal/http/client"
	exportHandler "github.com/MrJamesThe3rd/invoicer/internal/http/export"
	invoiceHandler "github.com/MrJamesThe3rd/invoicer/internal/http/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/invoicer/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicer/internal/render"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/memory"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	backend := memory.New()
	clients := client.NewService(clientStore.New(backend))
	editor := invoice.NewService(invoiceStore.NewDrafts(backend), clients)

	return apihttp.New(
		apihttp.Options{AllowedOrigins: []string{"https://app.example.com"}, AssistWindow: 5 * time.Second},
		invoiceHandler.NewHandler(editor, invoice.NewActiveRepository(editor)),
		exportHandler.NewHandler(export.NewService(nil), render.NewRaster(editor), editor, nil),
		clientHandler.NewHandler(clients, importer.NewService(clients)),
		assistHandler.NewHandler(assist.NewService(nil), editor),
	)
}

func TestRouter_Routes(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/invoice", http.StatusOK},
		{http.MethodGet, "/api/v1/clients", http.StatusOK},
		{http.MethodPost, "/api/v1/invoice/validate", http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/v1/invoice/export", http.StatusUnprocessableEntity},
		{http.MethodGet, "/api/v1/invoice/archive/other", http.StatusNotFound},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_AssistRateLimited(t *testing.T) {
	router := newRouter(t)

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ai-fill", strings.NewReader(`{"prompt":"bill 100"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", ip)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.7"))
	assert.Equal(t, http.StatusOK, call("203.0.113.8"))
}

func TestRouter_CORS(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoice", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
