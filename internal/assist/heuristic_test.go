package assist_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/invoicer/internal/assist"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

func draft() invoice.Invoice {
	inv := invoice.Blank("inv-1", testNow)
	inv.Items = append(inv.Items, invoice.Item{Description: "Hosting", Quantity: 2, Amount: decimal.NewFromInt(30)})

	return inv
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name        string
		prompt      string
		inv         invoice.Invoice
		wantAmount  string
		wantDate    string
		wantName    string
		wantCompany string
	}{
		{
			name:        "AllFields",
			prompt:      "My name is Jane Doe. Invoice client Acme Corp, $250.50 on 2026-03-10",
			inv:         draft(),
			wantAmount:  "250.5",
			wantDate:    "2026-03-10",
			wantName:    "Jane Doe",
			wantCompany: "Acme Corp",
		},
		{
			name:   "AmountNeedsItems",
			prompt: "charge 99 please",
			inv:    invoice.Invoice{},
		},
		{
			name:       "AmountOnly",
			prompt:     "charge 99 please",
			inv:        draft(),
			wantAmount: "99",
		},
		{
			name:   "NothingMatches",
			prompt: "hello there",
			inv:    draft(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := assist.Heuristic(tt.prompt, tt.inv)

			if tt.wantAmount == "" {
				assert.Empty(t, p.Items)
			} else if assert.Len(t, p.Items, len(tt.inv.Items)) {
				assert.Equal(t, tt.wantAmount, p.Items[0].Amount.String())
				assert.Equal(t, tt.inv.Items[1], p.Items[1])
			}

			assertText(t, tt.wantDate, p.InvoiceDate)
			assertText(t, tt.wantName, p.FullName)
			assertText(t, tt.wantCompany, p.BillToCompany)
		})
	}
}

func TestHeuristic_DoesNotMutateItems(t *testing.T) {
	inv := draft()

	_ = assist.Heuristic("bill 500", inv)
	assert.True(t, inv.Items[0].Amount.IsZero())
}

func assertText(t *testing.T, want string, got *string) {
	t.Helper()

	if want == "" {
		assert.Nil(t, got)
		return
	}

	if assert.NotNil(t, got) {
		assert.Equal(t, want, *got)
	}
}
