package invoice

import (
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("invoice not found")
	ErrNotActive       = errors.New("invoice is not the active draft")
	ErrIndexOutOfRange = errors.New("item index out of range")
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidValue    = errors.New("invalid field value")
	ErrNotBillToField  = errors.New("not a bill-to field")
	ErrClientNotFound  = errors.New("client not found")
	ErrValidation      = errors.New("invoice is invalid")
)

const (
	DraftNumber  = "INV-DRAFT"
	DefaultTerms = 15 // days
)

// Item is a line on the invoice. Amount is the per-unit price; the line
// contributes Amount * Quantity.
type Item struct {
	Description string          `json:"description" validate:"notblank"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is the single working document the editor holds.
//
// BillTo* are the stored bill-to values. While ClientID resolves to a client
// they are shadowed by the client's values (see Service.Resolved); they stay
// as the fallback when the link dangles.
type Invoice struct {
	ID            string              `json:"id"`
	Logo          *string             `json:"logo"`
	FullName      string              `json:"fullName" validate:"notblank"`
	Role          string              `json:"role" validate:"notblank"`
	BillToCompany string              `json:"billToCompany" validate:"notblank"`
	BillToAddress string              `json:"billToAddress" validate:"notblank"`
	BillToZip     string              `json:"billToZip" validate:"notblank"`
	InvoiceNumber string              `json:"invoiceNumber" validate:"notblank"`
	InvoiceDate   string              `json:"invoiceDate" validate:"datetime=2006-01-02"`
	DueDate       string              `json:"dueDate" validate:"datetime=2006-01-02"`
	Items         []Item              `json:"items" validate:"min=1,dive"`
	TaxRate       decimal.NullDecimal `json:"taxRate"`
	Notes         string              `json:"notes"`
	PayVia        string              `json:"payVia" validate:"notblank"`
	AccountName   string              `json:"accountName" validate:"notblank"`
	AccountEmail  string              `json:"accountEmail" validate:"email"`
	ClientID      *string             `json:"clientId,omitempty"`
}

// Blank returns the template a fresh or cleared editor starts from.
func Blank(id string, now time.Time) Invoice {
	return Invoice{
		ID:            id,
		InvoiceNumber: DraftNumber,
		InvoiceDate:   now.Format(time.DateOnly),
		DueDate:       now.AddDate(0, 0, DefaultTerms).Format(time.DateOnly),
		Items:         []Item{{Description: "Consulting services", Quantity: 1, Amount: decimal.Zero}},
		TaxRate:       decimal.NewNullDecimal(decimal.Zero),
		Notes:         "Payment due within 15 days.",
		PayVia:        "Bank Transfer",
	}
}

// NewItem is the line appended by Service.AddItem.
func NewItem() Item {
	return Item{Description: "New Item", Quantity: 1, Amount: decimal.Zero}
}

// Clone returns a deep copy.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.Items = slices.Clone(inv.Items)

	if inv.Logo != nil {
		out.Logo = new(*inv.Logo)
	}

	if inv.ClientID != nil {
		out.ClientID = new(*inv.ClientID)
	}

	return out
}

// Linked reports whether the invoice carries a client link.
func (inv Invoice) Linked() bool {
	return inv.ClientID != nil && *inv.ClientID != ""
}

// MarshalJSON writes amounts as JSON numbers instead of decimal's quoted
// strings. Decoding accepts both.
func (it Item) MarshalJSON() ([]byte, error) {
	type alias Item

	return json.Marshal(struct {
		alias
		Amount json.Number `json:"amount"`
	}{
		alias:  alias(it),
		Amount: json.Number(it.Amount.String()),
	})
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice

	var rate *json.Number
	if inv.TaxRate.Valid {
		rate = new(json.Number(inv.TaxRate.Decimal.String()))
	}

	return json.Marshal(struct {
		alias
		TaxRate *json.Number `json:"taxRate"`
	}{
		alias:   alias(inv),
		TaxRate: rate,
	})
}
