package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/importer/csvfile"
	"github.com/MrJamesThe3rd/invoicer/internal/importer/jsonfile"
)

// Directory is the part of the client service an import writes to.
type Directory interface {
	Import(ctx context.Context, params []client.CreateParams) ([]client.Client, error)
}

type Service struct {
	directory Directory
	importers map[Format]Importer
}

func NewService(directory Directory) *Service {
	return &Service{
		directory: directory,
		importers: map[Format]Importer{
			FormatCSV:  csvfile.NewParser(),
			FormatJSON: jsonfile.NewParser(),
		},
	}
}

// Parse reads r without touching the directory, e.g. for a preview.
func (s *Service) Parse(format Format, r io.Reader) ([]client.CreateParams, error) {
	imp, ok := s.importers[format]
	if !ok {
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return imp.Parse(r)
}

// Import parses r and appends every entry to the directory in one save.
func (s *Service) Import(ctx context.Context, format Format, r io.Reader) ([]client.Client, error) {
	params, err := s.Parse(format, r)
	if err != nil {
		return nil, err
	}

	added, err := s.directory.Import(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("importing clients: %w", err)
	}

	slog.Info("imported clients", "format", format, "count", len(added))

	return added, nil
}
