package client

import (
	"errors"

	"github.com/MrJamesThe3rd/invoicer/internal/ident"
)

var (
	ErrNotFound     = errors.New("client not found")
	ErrNotPersisted = errors.New("client directory not persisted")
)

// Client is an address-book entry that invoices can link to.
type Client struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Zip      string `json:"zip"`
}

type CreateParams struct {
	FullName string
	Address  string
	Zip      string
}

// Patch holds the fields to merge into an existing client. Nil means unchanged.
type Patch struct {
	FullName *string
	Address  *string
	Zip      *string
}

func (c *Client) apply(p Patch) {
	if p.FullName != nil {
		c.FullName = *p.FullName
	}

	if p.Address != nil {
		c.Address = *p.Address
	}

	if p.Zip != nil {
		c.Zip = *p.Zip
	}
}

// Seed is the directory a fresh install starts with.
func Seed() []Client {
	return []Client{{
		ID:       ident.NewID(),
		FullName: "Acme Corporation",
		Address:  "123 Main Street",
		Zip:      "12345",
	}}
}
