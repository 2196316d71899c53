package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	enc "github.com/MrJamesThe3rd/invoicer/internal/encoding"
)

var ErrNoHeader = errors.New("no client header found: expected a name and an address column")

// Parser reads client lists exported from spreadsheets. The encoding and the
// delimiter are detected, and the header may be preceded by free-form lines.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]client.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	sniffed, comma, err := enc.SniffDelimiter(utf8r)
	if err != nil {
		return nil, fmt.Errorf("detect delimiter: %w", err)
	}

	reader := csv.NewReader(sniffed)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cols, headerIdx, ok := detectHeader(rows)
	if !ok {
		return nil, ErrNoHeader
	}

	return parseRows(cols, rows[headerIdx+1:], headerIdx+1)
}

func detectHeader(rows [][]string) (columns, int, bool) {
	for rowIdx, row := range rows {
		for _, p := range profiles {
			if cols, ok := p.match(row); ok {
				return cols, rowIdx, true
			}
		}
	}

	return columns{}, 0, false
}

// parseRows skips blank lines. headerRowNum is the 0-based index of the
// header, used for row numbers in errors.
func parseRows(cols columns, rows [][]string, headerRowNum int) ([]client.CreateParams, error) {
	var out []client.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		if blank(row) {
			continue
		}

		name := cellValue(row, cols.name)
		if name == "" {
			return nil, fmt.Errorf("row %d: missing name", rowNum)
		}

		out = append(out, client.CreateParams{
			FullName: name,
			Address:  cellValue(row, cols.address),
			Zip:      cellValue(row, cols.zip),
		})
	}

	return out, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
