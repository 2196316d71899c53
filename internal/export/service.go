package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var (
	ErrInProgress = errors.New("an export is already in progress")
	ErrNoUploader = errors.New("no object store configured")
)

// A4 in millimetres.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 10.0
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=export

// Surface is the rendered invoice. Prepare pins what will be captured and
// returns a restore func that the pipeline always calls. Validate checks the
// pinned invoice, so what is validated is what gets exported.
type Surface interface {
	Prepare(ctx context.Context) (restore func(), err error)
	Validate() error
	Capture(ctx context.Context) (image.Image, error)
}

// Uploader stores a finished document and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Service turns a surface snapshot into a single-page PDF. At most one export
// runs at a time; a second caller fails fast with ErrInProgress.
type Service struct {
	uploader Uploader
	now      func() time.Time

	inFlight atomic.Bool
}

// NewService returns an export pipeline. uploader may be nil when no object
// store is configured.
func NewService(uploader Uploader) *Service {
	return &Service{
		uploader: uploader,
		now:      time.Now,
	}
}

// InProgress reports whether an export is running, e.g. to disable a trigger.
func (s *Service) InProgress() bool {
	return s.inFlight.Load()
}

// Export writes the PDF for surface to w.
func (s *Service) Export(ctx context.Context, surface Surface, w io.Writer) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrInProgress
	}
	defer s.inFlight.Store(false)

	img, err := capture(ctx, surface)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writePDF(img, w)
}

func capture(ctx context.Context, surface Surface) (image.Image, error) {
	restore, err := surface.Prepare(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing surface: %w", err)
	}
	defer restore()

	if err := surface.Validate(); err != nil {
		return nil, err
	}

	img, err := surface.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing surface: %w", err)
	}

	return img, nil
}

// writePDF places img on an A4 page, scaled to fit inside the margin and
// centered.
func writePDF(img image.Image, w io.Writer) error {
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return errors.New("encoding snapshot: empty image")
	}

	usableW := pageWidth - 2*margin
	usableH := pageHeight - 2*margin
	ratio := min(usableW/float64(b.Dx()), usableH/float64(b.Dy()))

	imgW := float64(b.Dx()) * ratio
	imgH := float64(b.Dy()) * ratio
	x := margin + (usableW-imgW)/2
	y := margin + (usableH-imgH)/2

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(true)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("invoice", opts, &raw)
	pdf.ImageOptions("invoice", x, y, imgW, imgH, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}

	return nil
}

// ExportAndStore exports and uploads the PDF under a name derived from
// invoiceNumber, returning its URL.
func (s *Service) ExportAndStore(ctx context.Context, surface Surface, invoiceNumber string) (string, error) {
	if s.uploader == nil {
		return "", ErrNoUploader
	}

	var buf bytes.Buffer
	if err := s.Export(ctx, surface, &buf); err != nil {
		return "", err
	}

	key := "invoices/" + FileName(invoiceNumber, s.now())

	url, err := s.uploader.Upload(ctx, key, "application/pdf", &buf)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	slog.Info("stored exported invoice", "key", key, "url", url)

	return url, nil
}

// FileName builds a download-safe name: YYYYMMDD_<invoice number>.pdf.
func FileName(invoiceNumber string, at time.Time) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, strings.TrimSpace(invoiceNumber))

	if safe == "" {
		safe = "invoice"
	}

	return fmt.Sprintf("%s_%s.pdf", at.Format("20060102"), safe)
}
