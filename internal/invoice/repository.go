package invoice

import (
	"context"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
)

// Repository stores invoices by id.
//
//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=invoice
type Repository interface {
	// Save creates or overwrites the invoice.
	Save(ctx context.Context, inv Invoice) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Invoice, error)
	// Update returns ErrNotFound unless the invoice already exists.
	Update(ctx context.Context, inv Invoice) error
	Delete(ctx context.Context, id string) error
}

// DraftRepository persists the single working draft.
type DraftRepository interface {
	// LoadDraft returns ErrNotFound when no draft was saved yet.
	LoadDraft(ctx context.Context) (Invoice, error)
	SaveDraft(ctx context.Context, inv Invoice) error
}

// ClientLookup resolves a client link.
type ClientLookup interface {
	Lookup(id string) (client.Client, bool)
}
