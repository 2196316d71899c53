package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
)

type entry struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Zip      string `json:"zip"`
}

// Parser reads a JSON array of clients, or the {"clients": [...]} object the
// directory itself is exported as. Ids in the file are ignored.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]client.CreateParams, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	raw = bytes.TrimSpace(raw)

	var entries []entry

	if bytes.HasPrefix(raw, []byte("{")) {
		var wrapped struct {
			Clients []entry `json:"clients"`
		}

		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}

		entries = wrapped.Clients
	} else if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	out := make([]client.CreateParams, 0, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.FullName) == "" {
			return nil, fmt.Errorf("entry %d: missing fullName", i)
		}

		out = append(out, client.CreateParams{FullName: e.FullName, Address: e.Address, Zip: e.Zip})
	}

	return out, nil
}
