package csvfile

import "strings"

// Profile describes the header vocabulary of a client list export. Each
// column lists the header spellings it answers to, compared without case.
type Profile struct {
	Name        string
	NameCols    []string
	AddressCols []string
	ZipCols     []string // optional
}

// profiles is tried in order against every candidate header row.
var profiles = []Profile{
	{
		Name:        "english",
		NameCols:    []string{"full name", "fullname", "name", "client", "company", "client name", "company name"},
		AddressCols: []string{"address", "street", "street address", "billing address"},
		ZipCols:     []string{"zip", "zip code", "zipcode", "postal code", "postcode"},
	},
	{
		Name:        "portuguese",
		NameCols:    []string{"nome", "nome completo", "cliente", "empresa"},
		AddressCols: []string{"morada", "endereço", "endereco"},
		ZipCols:     []string{"código postal", "codigo postal", "cp"},
	},
}

// columns is the resolved position of each field in the header; -1 when
// absent.
type columns struct {
	name, address, zip int
}

func (p Profile) match(header []string) (columns, bool) {
	cols := columns{
		name:    find(header, p.NameCols),
		address: find(header, p.AddressCols),
		zip:     find(header, p.ZipCols),
	}

	return cols, cols.name >= 0 && cols.address >= 0
}

func find(header []string, names []string) int {
	for _, name := range names {
		for i, cell := range header {
			if strings.EqualFold(strings.TrimSpace(cell), name) {
				return i
			}
		}
	}

	return -1
}
