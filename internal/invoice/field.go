package invoice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names a scalar invoice field, using its JSON name.
type Field string

const (
	FieldLogo          Field = "logo"
	FieldFullName      Field = "fullName"
	FieldRole          Field = "role"
	FieldBillToCompany Field = "billToCompany"
	FieldBillToAddress Field = "billToAddress"
	FieldBillToZip     Field = "billToZip"
	FieldInvoiceNumber Field = "invoiceNumber"
	FieldInvoiceDate   Field = "invoiceDate"
	FieldDueDate       Field = "dueDate"
	FieldTaxRate       Field = "taxRate"
	FieldNotes         Field = "notes"
	FieldPayVia        Field = "payVia"
	FieldAccountName   Field = "accountName"
	FieldAccountEmail  Field = "accountEmail"
)

// Fields lists every field accepted by Service.UpdateField in form order.
var Fields = []Field{
	FieldLogo, FieldFullName, FieldRole,
	FieldBillToCompany, FieldBillToAddress, FieldBillToZip,
	FieldInvoiceNumber, FieldInvoiceDate, FieldDueDate,
	FieldTaxRate, FieldNotes,
	FieldPayVia, FieldAccountName, FieldAccountEmail,
}

func (f Field) IsBillTo() bool {
	return f == FieldBillToCompany || f == FieldBillToAddress || f == FieldBillToZip
}

// ItemField names a field of a line item.
type ItemField string

const (
	ItemDescription ItemField = "description"
	ItemQuantity    ItemField = "quantity"
	ItemAmount      ItemField = "amount"
)

// Value returns the textual form of f, as a form input would show it.
func (inv Invoice) Value(f Field) (string, error) {
	switch f {
	case FieldLogo:
		if inv.Logo == nil {
			return "", nil
		}

		return *inv.Logo, nil
	case FieldTaxRate:
		if !inv.TaxRate.Valid {
			return "", nil
		}

		return inv.TaxRate.Decimal.String(), nil
	}

	p := inv.text(f)
	if p == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
	}

	return *p, nil
}

// set assigns the textual value v to f. Dates are stored as typed and only
// checked by Validate.
func (inv *Invoice) set(f Field, v string) error {
	switch f {
	case FieldLogo:
		if v == "" {
			inv.Logo = nil
		} else {
			inv.Logo = &v
		}

		return nil
	case FieldTaxRate:
		rate, err := ParseRate(v)
		if err != nil {
			return err
		}

		inv.TaxRate = rate

		return nil
	}

	p := inv.text(f)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}

	*p = v

	return nil
}

func (inv *Invoice) text(f Field) *string {
	switch f {
	case FieldFullName:
		return &inv.FullName
	case FieldRole:
		return &inv.Role
	case FieldBillToCompany:
		return &inv.BillToCompany
	case FieldBillToAddress:
		return &inv.BillToAddress
	case FieldBillToZip:
		return &inv.BillToZip
	case FieldInvoiceNumber:
		return &inv.InvoiceNumber
	case FieldInvoiceDate:
		return &inv.InvoiceDate
	case FieldDueDate:
		return &inv.DueDate
	case FieldNotes:
		return &inv.Notes
	case FieldPayVia:
		return &inv.PayVia
	case FieldAccountName:
		return &inv.AccountName
	case FieldAccountEmail:
		return &inv.AccountEmail
	}

	return nil
}

// ParseRate parses a tax rate typed into a form. Empty means no rate.
func ParseRate(v string) (decimal.NullDecimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: tax rate %q", ErrInvalidValue, v)
	}

	return decimal.NewNullDecimal(d), nil
}

func (it *Item) set(f ItemField, v string) error {
	switch f {
	case ItemDescription:
		it.Description = v
	case ItemQuantity:
		v = strings.TrimSpace(v)
		if v == "" {
			it.Quantity = 0
			return nil
		}

		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: quantity %q", ErrInvalidValue, v)
		}

		it.Quantity = q
	case ItemAmount:
		v = strings.TrimSpace(v)
		if v == "" {
			it.Amount = decimal.Zero
			return nil
		}

		a, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("%w: amount %q", ErrInvalidValue, v)
		}

		it.Amount = a
	default:
		return fmt.Errorf("%w: item %q", ErrUnknownField, f)
	}

	return nil
}
