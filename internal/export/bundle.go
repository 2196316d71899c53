package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// File is one entry of a bundle.
type File struct {
	Name string
	Body []byte
}

// Bundle exports the PDF and zips it with extra files, e.g. the invoice as
// JSON for re-import. The PDF is named after base.
func (s *Service) Bundle(ctx context.Context, surface Surface, base string, extra []File, w io.Writer) error {
	var pdf bytes.Buffer
	if err := s.Export(ctx, surface, &pdf); err != nil {
		return err
	}

	files := append([]File{{Name: base + ".pdf", Body: pdf.Bytes()}}, extra...)

	return writeZip(w, files)
}

func writeZip(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)

	for _, f := range files {
		if strings.Contains(f.Name, "..") || strings.HasPrefix(f.Name, "/") {
			return fmt.Errorf("invalid bundle entry name %q", f.Name)
		}

		zf, err := zw.Create(f.Name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", f.Name, err)
		}

		if _, err := zf.Write(f.Body); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zip: %w", err)
	}

	return nil
}
