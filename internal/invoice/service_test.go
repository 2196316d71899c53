package invoice_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc     *invoice.Service
	drafts  *invoice.MockDraftRepository
	clients *invoice.MockClientLookup
}

// newFixture builds a service with sequential ids ("id-1", "id-2", ...) and a
// fixed clock. Saves succeed unless the test overrides them.
func newFixture(t *testing.T, saves bool) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	drafts := invoice.NewMockDraftRepository(ctrl)
	clients := invoice.NewMockClientLookup(ctrl)

	if saves {
		drafts.EXPECT().SaveDraft(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	}

	n := 0
	svc := invoice.NewService(drafts, clients,
		invoice.WithClock(func() time.Time { return testNow }),
		invoice.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		invoice.WithReferenceGenerator(func() string { return "INV-ABCD-123456" }),
	)

	return fixture{svc: svc, drafts: drafts, clients: clients}
}

func TestService_StartsBlank(t *testing.T) {
	f := newFixture(t, true)

	assert.False(t, f.svc.Hydrated())
	assert.Empty(t, cmp.Diff(invoice.Blank("id-1", testNow), f.svc.Active(), decimalComparer))
}

func TestService_UpdateField_ChangesOnlyThatField(t *testing.T) {
	ctx := context.Background()

	for _, field := range invoice.Fields {
		if field == invoice.FieldTaxRate {
			continue
		}

		t.Run(string(field), func(t *testing.T) {
			f := newFixture(t, true)
			before := f.svc.Active()

			require.NoError(t, f.svc.UpdateField(ctx, field, "new value"))

			after := f.svc.Active()
			got, err := after.Value(field)
			require.NoError(t, err)
			assert.Equal(t, "new value", got)

			// Put the old value back; nothing else may differ.
			old, err := before.Value(field)
			require.NoError(t, err)

			restored := newFixture(t, true).svc
			require.NoError(t, restored.Replace(ctx, after))
			require.NoError(t, restored.UpdateField(ctx, field, old))
			assert.Empty(t, cmp.Diff(before, restored.Active(), decimalComparer))
		})
	}
}

func TestService_UpdateField_TaxRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldTaxRate, "12.5"))
	assertDecimal(t, "12.5", f.svc.Active().TaxRate.Decimal)

	require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldTaxRate, ""))
	assert.False(t, f.svc.Active().TaxRate.Valid)

	err := f.svc.UpdateField(ctx, invoice.FieldTaxRate, "twelve")
	assert.ErrorIs(t, err, invoice.ErrInvalidValue)
	assert.False(t, f.svc.Active().TaxRate.Valid)
}

func TestService_UpdateField_Unknown(t *testing.T) {
	f := newFixture(t, false)

	for _, field := range []invoice.Field{"id", "items", "clientId", "bogus"} {
		err := f.svc.UpdateField(context.Background(), field, "x")
		assert.ErrorIs(t, err, invoice.ErrUnknownField, field)
	}
}

func TestService_Items(t *testing.T) {
	ctx := context.Background()

	t.Run("AddThenRemoveLastIsIdentity", func(t *testing.T) {
		f := newFixture(t, true)
		before := f.svc.Active()

		require.NoError(t, f.svc.AddItem(ctx))
		inv := f.svc.Active()
		require.Len(t, inv.Items, 2)
		assert.Equal(t, invoice.NewItem(), inv.Items[1])

		require.NoError(t, f.svc.RemoveItem(ctx, 1))
		assert.Empty(t, cmp.Diff(before, f.svc.Active(), decimalComparer))
	})

	t.Run("UpdateItemFields", func(t *testing.T) {
		f := newFixture(t, true)

		require.NoError(t, f.svc.UpdateItem(ctx, 0, invoice.ItemDescription, "Audit"))
		require.NoError(t, f.svc.UpdateItem(ctx, 0, invoice.ItemQuantity, "3"))
		require.NoError(t, f.svc.UpdateItem(ctx, 0, invoice.ItemAmount, "12.50"))

		it := f.svc.Active().Items[0]
		assert.Equal(t, "Audit", it.Description)
		assert.Equal(t, 3, it.Quantity)
		assertDecimal(t, "12.5", it.Amount)
		assertDecimal(t, "37.5", f.svc.Totals().Subtotal)
	})

	t.Run("EmptyNumericInputIsZero", func(t *testing.T) {
		f := newFixture(t, true)

		require.NoError(t, f.svc.UpdateItem(ctx, 0, invoice.ItemQuantity, ""))
		assert.Equal(t, 0, f.svc.Active().Items[0].Quantity)
		assert.True(t, f.svc.Totals().Total.IsZero())
	})

	t.Run("RejectsBadInput", func(t *testing.T) {
		f := newFixture(t, false)
		before := f.svc.Active()

		assert.ErrorIs(t, f.svc.UpdateItem(ctx, 0, invoice.ItemQuantity, "1.5"), invoice.ErrInvalidValue)
		assert.ErrorIs(t, f.svc.UpdateItem(ctx, 0, invoice.ItemAmount, "ten"), invoice.ErrInvalidValue)
		assert.ErrorIs(t, f.svc.UpdateItem(ctx, 0, "sku", "x"), invoice.ErrUnknownField)
		assert.Empty(t, cmp.Diff(before, f.svc.Active(), decimalComparer))
	})

	t.Run("OutOfRange", func(t *testing.T) {
		f := newFixture(t, false)
		before := f.svc.Active()

		assert.ErrorIs(t, f.svc.UpdateItem(ctx, 1, invoice.ItemDescription, "x"), invoice.ErrIndexOutOfRange)
		assert.ErrorIs(t, f.svc.UpdateItem(ctx, -1, invoice.ItemDescription, "x"), invoice.ErrIndexOutOfRange)
		assert.ErrorIs(t, f.svc.RemoveItem(ctx, 5), invoice.ErrIndexOutOfRange)
		assert.Empty(t, cmp.Diff(before, f.svc.Active(), decimalComparer))
	})

	t.Run("RemovingEveryItemIsAllowed", func(t *testing.T) {
		f := newFixture(t, true)

		require.NoError(t, f.svc.RemoveItem(ctx, 0))
		assert.Empty(t, f.svc.Active().Items)

		var verr *invoice.ValidationError
		require.ErrorAs(t, f.svc.Validate(), &verr)
		assert.True(t, verr.Has("items"))
	})
}

func TestService_ClientLink(t *testing.T) {
	ctx := context.Background()
	acme := client.Client{ID: "c-1", FullName: "Acme Corporation", Address: "123 Main Street", Zip: "12345"}

	t.Run("LinkedClientOverridesStoredValues", func(t *testing.T) {
		f := newFixture(t, true)
		f.clients.EXPECT().Lookup("c-1").Return(acme, true).AnyTimes()

		require.NoError(t, f.svc.SelectClient(ctx, "c-1"))

		stored := f.svc.Active()
		require.NotNil(t, stored.ClientID)
		assert.Equal(t, "c-1", *stored.ClientID)
		assert.Equal(t, "Acme Corporation", stored.BillToCompany)

		bt := f.svc.BillTo()
		assert.True(t, bt.Linked)
		assert.Equal(t, "Acme Corporation", bt.Company)
		assert.Equal(t, "12345", bt.Zip)
	})

	t.Run("ClientEditsShowThrough", func(t *testing.T) {
		f := newFixture(t, true)

		renamed := acme
		renamed.FullName = "Acme Holdings"

		gomock.InOrder(
			f.clients.EXPECT().Lookup("c-1").Return(acme, true),
			f.clients.EXPECT().Lookup("c-1").Return(renamed, true).AnyTimes(),
		)

		require.NoError(t, f.svc.SelectClient(ctx, "c-1"))
		assert.Equal(t, "Acme Holdings", f.svc.Resolved().BillToCompany)
		assert.Equal(t, "Acme Corporation", f.svc.Active().BillToCompany)
	})

	t.Run("DanglingLinkFallsBackToStoredValues", func(t *testing.T) {
		f := newFixture(t, true)

		gomock.InOrder(
			f.clients.EXPECT().Lookup("c-1").Return(acme, true),
			f.clients.EXPECT().Lookup("c-1").Return(client.Client{}, false).AnyTimes(),
		)

		require.NoError(t, f.svc.SelectClient(ctx, "c-1"))

		bt := f.svc.BillTo()
		assert.False(t, bt.Linked)
		require.NotNil(t, bt.ClientID)
		assert.Equal(t, "Acme Corporation", bt.Company)
		assert.Equal(t, "123 Main Street", bt.Address)
	})

	t.Run("ManualEntryDropsLink", func(t *testing.T) {
		f := newFixture(t, true)
		f.clients.EXPECT().Lookup("c-1").Return(acme, true).AnyTimes()

		require.NoError(t, f.svc.SelectClient(ctx, "c-1"))
		require.NoError(t, f.svc.SetBillToField(ctx, invoice.FieldBillToZip, "54321"))

		inv := f.svc.Resolved()
		assert.Nil(t, inv.ClientID)
		assert.Equal(t, "54321", inv.BillToZip)
		assert.Equal(t, "Acme Corporation", inv.BillToCompany)
	})

	t.Run("SetBillToFieldRejectsOtherFields", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.svc.SetBillToField(ctx, invoice.FieldNotes, "x")
		assert.ErrorIs(t, err, invoice.ErrNotBillToField)
	})

	t.Run("UnknownClient", func(t *testing.T) {
		f := newFixture(t, false)
		f.clients.EXPECT().Lookup("nope").Return(client.Client{}, false)

		err := f.svc.SelectClient(ctx, "nope")
		assert.ErrorIs(t, err, invoice.ErrClientNotFound)
		assert.Nil(t, f.svc.Active().ClientID)
	})

	t.Run("ClearClientKeepsValues", func(t *testing.T) {
		f := newFixture(t, true)
		f.clients.EXPECT().Lookup("c-1").Return(acme, true).AnyTimes()

		require.NoError(t, f.svc.SelectClient(ctx, "c-1"))
		require.NoError(t, f.svc.ClearClient(ctx))

		inv := f.svc.Active()
		assert.Nil(t, inv.ClientID)
		assert.Equal(t, "Acme Corporation", inv.BillToCompany)
	})
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldFullName, "Jamie Doe"))
	require.NoError(t, f.svc.AddItem(ctx))
	require.NoError(t, f.svc.Clear(ctx))

	assert.Empty(t, cmp.Diff(invoice.Blank("id-2", testNow), f.svc.Active(), decimalComparer))
}

func TestService_Replace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	next := validInvoice()
	next.ID = ""

	require.NoError(t, f.svc.Replace(ctx, next))

	got := f.svc.Active()
	assert.Equal(t, "id-2", got.ID)
	assert.Equal(t, "Jamie Doe", got.FullName)
	assert.NoError(t, f.svc.Validate())
}

func TestService_SaveFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	f.drafts.EXPECT().SaveDraft(gomock.Any(), gomock.Any()).Return(errors.New("disk full")).Times(2)

	before := f.svc.Active()

	err := f.svc.UpdateField(ctx, invoice.FieldFullName, "Jamie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = f.svc.RegenerateNumber(ctx)
	require.Error(t, err)

	assert.Empty(t, cmp.Diff(before, f.svc.Active(), decimalComparer))
}

func TestService_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	var saved []invoice.Invoice
	f.drafts.EXPECT().SaveDraft(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inv invoice.Invoice) error {
			saved = append(saved, inv)
			return nil
		}).Times(2)

	require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldRole, "Engineer"))
	require.NoError(t, f.svc.AddItem(ctx))

	require.Len(t, saved, 2)
	assert.Equal(t, "Engineer", saved[0].Role)
	assert.Len(t, saved[1].Items, 2)
}

func TestService_Hydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadsPersistedDraftOnce", func(t *testing.T) {
		f := newFixture(t, true)

		stored := validInvoice()
		f.drafts.EXPECT().LoadDraft(gomock.Any()).Return(stored, nil).Times(1)

		require.NoError(t, f.svc.Hydrate(ctx))
		require.NoError(t, f.svc.Hydrate(ctx))

		assert.True(t, f.svc.Hydrated())
		assert.Empty(t, cmp.Diff(stored, f.svc.Active(), decimalComparer))
	})

	t.Run("NothingStored", func(t *testing.T) {
		f := newFixture(t, true)
		f.drafts.EXPECT().LoadDraft(gomock.Any()).Return(invoice.Invoice{}, invoice.ErrNotFound)

		require.NoError(t, f.svc.Hydrate(ctx))
		assert.True(t, f.svc.Hydrated())
		assert.Equal(t, invoice.DraftNumber, f.svc.Active().InvoiceNumber)
	})

	t.Run("StoredWithoutID", func(t *testing.T) {
		f := newFixture(t, true)

		stored := validInvoice()
		stored.ID = ""
		f.drafts.EXPECT().LoadDraft(gomock.Any()).Return(stored, nil)

		require.NoError(t, f.svc.Hydrate(ctx))
		assert.Equal(t, "id-2", f.svc.Active().ID)
	})

	t.Run("LoadFailure", func(t *testing.T) {
		f := newFixture(t, true)
		f.drafts.EXPECT().LoadDraft(gomock.Any()).Return(invoice.Invoice{}, errors.New("corrupt"))

		err := f.svc.Hydrate(ctx)
		require.Error(t, err)
		assert.True(t, f.svc.Hydrated())
		assert.Equal(t, "id-1", f.svc.Active().ID)
	})

	t.Run("SkippedAfterMutation", func(t *testing.T) {
		f := newFixture(t, true)

		require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldNotes, "typed before load"))
		require.NoError(t, f.svc.Hydrate(ctx))

		assert.Equal(t, "typed before load", f.svc.Active().Notes)
	})
}

func TestService_ApplyPatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		f := newFixture(t, true)

		require.NoError(t, f.svc.ApplyPatch(ctx, invoice.Patch{
			BillToCompany: new("Globex"),
			Items:         []invoice.Item{{Description: "Design", Quantity: 2, Amount: dec("40")}},
		}))

		inv := f.svc.Active()
		assert.Equal(t, "Globex", inv.BillToCompany)
		assertDecimal(t, "80", f.svc.Totals().Subtotal)
	})

	t.Run("InvalidLeavesDraftAlone", func(t *testing.T) {
		f := newFixture(t, false)
		before := f.svc.Active()

		err := f.svc.ApplyPatch(ctx, invoice.Patch{FullName: new("Sam"), DueDate: new("soon")})
		assert.ErrorIs(t, err, invoice.ErrValidation)
		assert.Empty(t, cmp.Diff(before, f.svc.Active(), decimalComparer))
	})
}

func TestService_RegenerateNumber(t *testing.T) {
	f := newFixture(t, true)

	code, err := f.svc.RegenerateNumber(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "INV-ABCD-123456", code)
	assert.Equal(t, code, f.svc.Active().InvoiceNumber)
}

func TestService_Subscribe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	var seen []string
	unsubscribe := f.svc.Subscribe(func(inv invoice.Invoice) {
		seen = append(seen, inv.FullName)
	})

	require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldFullName, "A"))
	require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldFullName, "B"))

	unsubscribe()
	require.NoError(t, f.svc.UpdateField(ctx, invoice.FieldFullName, "C"))

	assert.Equal(t, []string{"A", "B"}, seen)
}

func TestService_State(t *testing.T) {
	ctx := context.Background()
	acme := client.Client{ID: "c-1", FullName: "Acme Corporation", Address: "123 Main Street", Zip: "12345"}

	f := newFixture(t, true)
	f.clients.EXPECT().Lookup("c-1").Return(acme, true).AnyTimes()
	require.NoError(t, f.svc.SelectClient(ctx, "c-1"))

	done := make(chan struct{})
	go func() {
		defer close(done)

		for range 50 {
			_ = f.svc.AddItem(ctx)
			_ = f.svc.UpdateItem(ctx, 0, invoice.ItemAmount, "7.5")
		}
	}()

	for range 50 {
		st := f.svc.State()

		// Totals and bill-to always describe the returned invoice.
		assert.Equal(t, invoice.Compute(st.Invoice), st.Totals)
		assert.Equal(t, st.Invoice.ClientID, st.BillTo.ClientID)
		assert.True(t, st.BillTo.Linked)
	}

	<-done

	st := f.svc.State()
	assert.Len(t, st.Invoice.Items, 51)
	assert.Equal(t, f.svc.Totals(), st.Totals)
	assert.Equal(t, f.svc.BillTo(), st.BillTo)
}

func TestService_ReadsAreCopies(t *testing.T) {
	f := newFixture(t, true)

	inv := f.svc.Active()
	inv.Items[0].Description = "mutated outside"
	inv.FullName = "mutated outside"

	assert.Equal(t, "Consulting services", f.svc.Active().Items[0].Description)
	assert.Empty(t, f.svc.Active().FullName)
}
