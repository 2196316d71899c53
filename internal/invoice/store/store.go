package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/storage"
)

const (
	DraftKey      = "invoice-storage"
	ArchivePrefix = "invoice:"
)

// schemaVersion 1 stores the bare invoice. Version 0 is the browser editor's
// {"invoice": {...}} state.
const schemaVersion = 1

var (
	_ invoice.DraftRepository = (*Drafts)(nil)
	_ invoice.Repository      = (*Archive)(nil)
)

func newCodec() *storage.Codec {
	return storage.NewCodec(schemaVersion, map[int]storage.Migration{
		0: storage.UnwrapKey("invoice"),
	})
}

// Drafts persists the single working invoice.
type Drafts struct {
	backend storage.Backend
	codec   *storage.Codec
	now     func() time.Time
}

func NewDrafts(backend storage.Backend) *Drafts {
	return &Drafts{backend: backend, codec: newCodec(), now: time.Now}
}

func (d *Drafts) LoadDraft(ctx context.Context) (invoice.Invoice, error) {
	return load(ctx, d.backend, d.codec, DraftKey)
}

func (d *Drafts) SaveDraft(ctx context.Context, inv invoice.Invoice) error {
	return save(ctx, d.backend, d.codec, DraftKey, inv, d.now())
}

// Archive keeps finished invoices by id alongside the draft.
type Archive struct {
	backend storage.Backend
	codec   *storage.Codec
	now     func() time.Time
}

func NewArchive(backend storage.Backend) *Archive {
	return &Archive{backend: backend, codec: newCodec(), now: time.Now}
}

// Save stores inv, replacing any archived copy with the same id.
func (a *Archive) Save(ctx context.Context, inv invoice.Invoice) error {
	if inv.ID == "" {
		return fmt.Errorf("%w: missing id", invoice.ErrInvalidValue)
	}

	return save(ctx, a.backend, a.codec, ArchivePrefix+inv.ID, inv, a.now())
}

func (a *Archive) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	return load(ctx, a.backend, a.codec, ArchivePrefix+id)
}

// Update only rewrites an invoice that is already archived.
func (a *Archive) Update(ctx context.Context, inv invoice.Invoice) error {
	if _, err := a.Get(ctx, inv.ID); err != nil {
		return err
	}

	return save(ctx, a.backend, a.codec, ArchivePrefix+inv.ID, inv, a.now())
}

func (a *Archive) Delete(ctx context.Context, id string) error {
	err := a.backend.Delete(ctx, ArchivePrefix+id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", invoice.ErrNotFound, id)
	}

	if err != nil {
		return fmt.Errorf("deleting invoice %s: %w", id, err)
	}

	return nil
}

func load(ctx context.Context, backend storage.Backend, codec *storage.Codec, key string) (invoice.Invoice, error) {
	raw, err := backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return invoice.Invoice{}, fmt.Errorf("%w: %s", invoice.ErrNotFound, key)
	}

	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("reading %s: %w", key, err)
	}

	var inv invoice.Invoice
	if err := codec.Decode(raw, &inv); err != nil {
		return invoice.Invoice{}, fmt.Errorf("decoding %s: %w", key, err)
	}

	return inv, nil
}

func save(ctx context.Context, backend storage.Backend, codec *storage.Codec, key string, inv invoice.Invoice, now time.Time) error {
	raw, err := codec.Encode(inv, now)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	if err := backend.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}
