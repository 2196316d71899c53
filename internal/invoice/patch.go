package invoice

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Patch is a partial invoice, e.g. as proposed by the assistant. Nil pointers
// and blank strings are treated as absent, so a patch never clears a field.
// A non-empty Items replaces the items wholesale.
type Patch struct {
	FullName      *string          `json:"fullName,omitempty"`
	Role          *string          `json:"role,omitempty"`
	BillToCompany *string          `json:"billToCompany,omitempty"`
	BillToAddress *string          `json:"billToAddress,omitempty"`
	BillToZip     *string          `json:"billToZip,omitempty"`
	InvoiceNumber *string          `json:"invoiceNumber,omitempty"`
	InvoiceDate   *string          `json:"invoiceDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate       *string          `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Items         []Item           `json:"items,omitempty" validate:"omitempty,dive"`
	TaxRate       *decimal.Decimal `json:"taxRate,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	PayVia        *string          `json:"payVia,omitempty"`
	AccountName   *string          `json:"accountName,omitempty"`
	AccountEmail  *string          `json:"accountEmail,omitempty" validate:"omitempty,email"`
}

func patchRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(Patch)

	if p.TaxRate != nil && !rateInRange(*p.TaxRate) {
		sl.ReportError(p.TaxRate, "taxRate", "TaxRate", tagTaxRange, "")
	}
}

// MarshalJSON writes taxRate as a number, matching Invoice.
func (p Patch) MarshalJSON() ([]byte, error) {
	type alias Patch

	var rate *json.Number
	if p.TaxRate != nil {
		rate = new(json.Number(p.TaxRate.String()))
	}

	return json.Marshal(struct {
		alias
		TaxRate *json.Number `json:"taxRate,omitempty"`
	}{
		alias:   alias(p),
		TaxRate: rate,
	})
}

// Validate checks that every present value is well formed.
func (p Patch) Validate() error {
	return check(validate.Struct(p.normalized()))
}

// normalized turns blank strings into nil so they skip validation.
func (p Patch) normalized() Patch {
	fields := []**string{
		&p.FullName, &p.Role,
		&p.BillToCompany, &p.BillToAddress, &p.BillToZip,
		&p.InvoiceNumber, &p.InvoiceDate, &p.DueDate,
		&p.Notes, &p.PayVia, &p.AccountName, &p.AccountEmail,
	}

	for _, f := range fields {
		if !present(*f) {
			*f = nil
		}
	}

	return p
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	for _, v := range p.texts() {
		if present(v.value) {
			return false
		}
	}

	return len(p.Items) == 0 && p.TaxRate == nil
}

// TouchesBillTo reports whether applying p rewrites a bill-to field.
func (p Patch) TouchesBillTo() bool {
	return present(p.BillToCompany) || present(p.BillToAddress) || present(p.BillToZip)
}

type patchText struct {
	field Field
	value *string
}

func (p Patch) texts() []patchText {
	return []patchText{
		{FieldFullName, p.FullName},
		{FieldRole, p.Role},
		{FieldBillToCompany, p.BillToCompany},
		{FieldBillToAddress, p.BillToAddress},
		{FieldBillToZip, p.BillToZip},
		{FieldInvoiceNumber, p.InvoiceNumber},
		{FieldInvoiceDate, p.InvoiceDate},
		{FieldDueDate, p.DueDate},
		{FieldNotes, p.Notes},
		{FieldPayVia, p.PayVia},
		{FieldAccountName, p.AccountName},
		{FieldAccountEmail, p.AccountEmail},
	}
}

// Merge applies p. Touching a bill-to field drops the client link, the same
// as editing it by hand. ID and ClientID are never patched.
func (inv *Invoice) Merge(p Patch) {
	for _, t := range p.texts() {
		if present(t.value) {
			*inv.text(t.field) = strings.TrimSpace(*t.value)
		}
	}

	if len(p.Items) > 0 {
		inv.Items = append([]Item(nil), p.Items...)
	}

	if p.TaxRate != nil {
		inv.TaxRate = decimal.NewNullDecimal(*p.TaxRate)
	}

	if p.TouchesBillTo() {
		inv.ClientID = nil
	}
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
