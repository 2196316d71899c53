package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicer/internal/storage"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/localdb"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/memory"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func sample() invoice.Invoice {
	inv := invoice.Blank("inv-1", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	inv.Logo = new("data:image/png;base64,iVBORw0KGgo=")
	inv.FullName = "Jamie Doe"
	inv.BillToCompany = "Acme Corporation"
	inv.ClientID = new("c-1")
	inv.TaxRate = decimal.NewNullDecimal(decimal.RequireFromString("12.5"))
	inv.Items = append(inv.Items, invoice.Item{
		Description: "Hosting", Quantity: 12, Amount: decimal.RequireFromString("9.99"),
	})

	return inv
}

func TestDrafts_PersistAndRehydrate(t *testing.T) {
	ctx := context.Background()

	backends := map[string]storage.Backend{
		"memory": memory.New(),
	}

	db, err := localdb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	backends["localdb"] = db

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			drafts := store.NewDrafts(backend)

			_, err := drafts.LoadDraft(ctx)
			assert.ErrorIs(t, err, invoice.ErrNotFound)

			want := sample()
			require.NoError(t, drafts.SaveDraft(ctx, want))

			got, err := drafts.LoadDraft(ctx)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(want, got, decimalComparer))
		})
	}
}

func TestDrafts_ThroughService(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	first := invoice.NewService(store.NewDrafts(backend), nil)
	require.NoError(t, first.Replace(ctx, sample()))
	require.NoError(t, first.AddItem(ctx))

	second := invoice.NewService(store.NewDrafts(backend), nil)
	require.NoError(t, second.Hydrate(ctx))

	assert.Empty(t, cmp.Diff(first.Active(), second.Active(), decimalComparer))
}

func TestDrafts_LoadBrowserState(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	legacy := `{"state":{"invoice":{
		"logo":null,"fullName":"Jamie Doe","role":"Consultant",
		"billToCompany":"Acme Corporation","billToAddress":"123 Main Street","billToZip":"12345",
		"invoiceNumber":"INV-DRAFT","invoiceDate":"2026-03-10","dueDate":"2026-03-25",
		"items":[{"description":"Consulting services","quantity":2,"amount":150}],
		"taxRate":12,"notes":"","payVia":"Bank Transfer","accountName":"Jamie Doe","accountEmail":"jamie@example.com"
	}},"version":0}`
	require.NoError(t, backend.Put(ctx, store.DraftKey, []byte(legacy)))

	got, err := store.NewDrafts(backend).LoadDraft(ctx)
	require.NoError(t, err)

	assert.Empty(t, got.ID)
	assert.Equal(t, "Acme Corporation", got.BillToCompany)
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.NewFromInt(300).Equal(invoice.Compute(got).Subtotal))
	assert.NoError(t, invoice.Validate(got))
}

func TestDrafts_BackendErrors(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := storage.NewMockBackend(ctrl)

	backend.EXPECT().Get(gomock.Any(), store.DraftKey).Return(nil, errors.New("io error"))
	backend.EXPECT().Get(gomock.Any(), store.DraftKey).Return([]byte(`{"version":9,"data":{}}`), nil)
	backend.EXPECT().Put(gomock.Any(), store.DraftKey, gomock.Any()).Return(errors.New("io error"))

	drafts := store.NewDrafts(backend)

	_, err := drafts.LoadDraft(ctx)
	assert.ErrorContains(t, err, "reading invoice-storage")
	assert.NotErrorIs(t, err, invoice.ErrNotFound)

	_, err = drafts.LoadDraft(ctx)
	assert.ErrorIs(t, err, storage.ErrUnsupportedVersion)

	assert.ErrorContains(t, drafts.SaveDraft(ctx, sample()), "writing invoice-storage")
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	archive := store.NewArchive(backend)

	inv := sample()

	assert.ErrorIs(t, archive.Update(ctx, inv), invoice.ErrNotFound)

	require.NoError(t, archive.Save(ctx, inv))

	got, err := archive.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(inv, got, decimalComparer))

	inv.Notes = "Paid"
	require.NoError(t, archive.Update(ctx, inv))

	got, err = archive.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "Paid", got.Notes)

	// Archived invoices never collide with the draft.
	_, err = store.NewDrafts(backend).LoadDraft(ctx)
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	require.NoError(t, archive.Delete(ctx, "inv-1"))
	assert.ErrorIs(t, archive.Delete(ctx, "inv-1"), invoice.ErrNotFound)

	_, err = archive.Get(ctx, "inv-1")
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestArchive_RequiresID(t *testing.T) {
	inv := sample()
	inv.ID = ""

	err := store.NewArchive(memory.New()).Save(context.Background(), inv)
	assert.ErrorIs(t, err, invoice.ErrInvalidValue)
}
