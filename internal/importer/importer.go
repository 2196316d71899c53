package importer

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Importer turns an uploaded file into client directory entries.
type Importer interface {
	Parse(r io.Reader) ([]client.CreateParams, error)
}

// FormatFromFilename guesses the format from the extension. Anything that is
// not .json is treated as delimited text.
func FormatFromFilename(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return FormatJSON
	}

	return FormatCSV
}
