package export_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/export"
)

func snapshot() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 80, 120))
	for x := range 80 {
		img.Set(x, 10, color.Black)
	}

	return img
}

type fixture struct {
	svc      *export.Service
	surface  *export.MockSurface
	uploader *export.MockUploader
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := fixture{
		surface:  export.NewMockSurface(ctrl),
		uploader: export.NewMockUploader(ctrl),
	}
	f.svc = export.NewService(f.uploader)

	return f
}

// expectPrepare wires a successful Prepare and reports whether restore ran.
func (f fixture) expectPrepare() *bool {
	restored := new(bool)
	f.surface.EXPECT().Prepare(gomock.Any()).Return(func() { *restored = true }, nil)

	return restored
}

// expectCapture wires a valid snapshot through Prepare/Validate/Capture.
func (f fixture) expectCapture(img image.Image, captureErr error) *bool {
	restored := f.expectPrepare()

	gomock.InOrder(
		f.surface.EXPECT().Validate().Return(nil),
		f.surface.EXPECT().Capture(gomock.Any()).Return(img, captureErr),
	)

	return restored
}

func TestService_Export(t *testing.T) {
	f := newFixture(t)
	restored := f.expectCapture(snapshot(), nil)

	var out bytes.Buffer
	require.NoError(t, f.svc.Export(context.Background(), f.surface, &out))

	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))
	assert.Contains(t, out.String(), "/MediaBox")
	assert.True(t, *restored)
	assert.False(t, f.svc.InProgress())
}

func TestService_Export_InvalidInvoice(t *testing.T) {
	f := newFixture(t)

	restored := new(bool)
	gomock.InOrder(
		f.surface.EXPECT().Prepare(gomock.Any()).Return(func() { *restored = true }, nil),
		f.surface.EXPECT().Validate().Return(errors.New("invalid invoice: fullName: Required")),
	)

	var out bytes.Buffer
	err := f.svc.Export(context.Background(), f.surface, &out)

	assert.ErrorContains(t, err, "fullName")
	assert.Zero(t, out.Len())
	assert.True(t, *restored)
	assert.False(t, f.svc.InProgress())
}

func TestService_Export_CaptureFailureRestores(t *testing.T) {
	f := newFixture(t)
	restored := f.expectCapture(nil, errors.New("draw failed"))

	err := f.svc.Export(context.Background(), f.surface, io.Discard)

	assert.ErrorContains(t, err, "capturing surface: draw failed")
	assert.True(t, *restored)
	assert.False(t, f.svc.InProgress())
}

func TestService_Export_PrepareFailure(t *testing.T) {
	f := newFixture(t)
	f.surface.EXPECT().Prepare(gomock.Any()).Return(nil, errors.New("busy"))

	err := f.svc.Export(context.Background(), f.surface, io.Discard)
	assert.ErrorContains(t, err, "preparing surface")
	assert.False(t, f.svc.InProgress())
}

func TestService_Export_Cancelled(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())

	restored := f.expectPrepare()
	f.surface.EXPECT().Validate().Return(nil)
	f.surface.EXPECT().Capture(gomock.Any()).DoAndReturn(func(context.Context) (image.Image, error) {
		cancel()
		return snapshot(), nil
	})

	err := f.svc.Export(ctx, f.surface, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, *restored)
}

func TestService_Export_OneAtATime(t *testing.T) {
	f := newFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})

	f.surface.EXPECT().Prepare(gomock.Any()).Return(func() {}, nil)
	f.surface.EXPECT().Validate().Return(nil)
	f.surface.EXPECT().Capture(gomock.Any()).DoAndReturn(func(context.Context) (image.Image, error) {
		close(entered)
		<-release

		return snapshot(), nil
	})

	done := make(chan error, 1)

	go func() {
		done <- f.svc.Export(context.Background(), f.surface, io.Discard)
	}()

	<-entered
	assert.True(t, f.svc.InProgress())
	assert.ErrorIs(t, f.svc.Export(context.Background(), f.surface, io.Discard), export.ErrInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.svc.InProgress())
}

func TestService_ExportAndStore(t *testing.T) {
	f := newFixture(t)
	f.expectCapture(snapshot(), nil)

	f.uploader.EXPECT().
		Upload(gomock.Any(), gomock.Any(), "application/pdf", gomock.Any()).
		DoAndReturn(func(_ context.Context, key, _ string, body io.Reader) (string, error) {
			assert.Regexp(t, `^invoices/\d{8}_INV-AB12-XYZ789\.pdf$`, key)

			b, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))

			return "https://cdn.example.com/" + key, nil
		})

	url, err := f.svc.ExportAndStore(context.Background(), f.surface, "INV-AB12-XYZ789")
	require.NoError(t, err)
	assert.Contains(t, url, "https://cdn.example.com/invoices/")
}

func TestService_ExportAndStore_NoUploader(t *testing.T) {
	svc := export.NewService(nil)

	_, err := svc.ExportAndStore(context.Background(), nil, "INV-1")
	assert.ErrorIs(t, err, export.ErrNoUploader)
}

func TestService_Bundle(t *testing.T) {
	f := newFixture(t)
	f.expectCapture(snapshot(), nil)

	var out bytes.Buffer
	err := f.svc.Bundle(context.Background(), f.surface, "20260310_INV-1",
		[]export.File{{Name: "20260310_INV-1.json", Body: []byte(`{"id":"inv-1"}`)}}, &out)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "20260310_INV-1.pdf", zr.File[0].Name)
	assert.Equal(t, "20260310_INV-1.json", zr.File[1].Name)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "20260310_INV-AB12-XYZ789.pdf", export.FileName("INV-AB12-XYZ789", at))
	assert.Equal(t, "20260310_INV_2026_01.pdf", export.FileName("INV/2026 01", at))
	assert.Equal(t, "20260310_invoice.pdf", export.FileName("  ", at))
}
