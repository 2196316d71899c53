package invoice

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// FieldError is one failing field. Field is a JSON path such as
// "items[1].quantity".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every failing field, not just the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}

	return "invalid invoice: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Has reports whether field failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}

	return false
}

const (
	tagTaxRange    = "taxrange"
	tagNonNegative = "nonnegative"
	tagDueDate     = "duedate"
)

var messages = map[string]string{
	"notblank":     "Required",
	"datetime":     "Must be an ISO date string (YYYY-MM-DD)",
	"email":        "Invalid email",
	"min":          "At least one item is required",
	"gt":           "Quantity must be a positive whole number",
	tagNonNegative: "Amount cannot be negative",
	tagTaxRange:    "Tax rate must be between 0 and 100",
	tagDueDate:     "Due date must be on or after the invoice date",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	v.RegisterStructValidation(invoiceRules, Invoice{})
	v.RegisterStructValidation(itemRules, Item{})
	v.RegisterStructValidation(patchRules, Patch{})

	return v
}

func invoiceRules(sl validator.StructLevel) {
	inv := sl.Current().Interface().(Invoice)

	if inv.TaxRate.Valid && !rateInRange(inv.TaxRate.Decimal) {
		sl.ReportError(inv.TaxRate, "taxRate", "TaxRate", tagTaxRange, "")
	}

	issued, errIssued := time.Parse(time.DateOnly, inv.InvoiceDate)
	due, errDue := time.Parse(time.DateOnly, inv.DueDate)

	if errIssued == nil && errDue == nil && due.Before(issued) {
		sl.ReportError(inv.DueDate, "dueDate", "DueDate", tagDueDate, "")
	}
}

func itemRules(sl validator.StructLevel) {
	it := sl.Current().Interface().(Item)

	if it.Amount.IsNegative() {
		sl.ReportError(it.Amount, "amount", "Amount", tagNonNegative, "")
	}
}

func rateInRange(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// Validate checks inv against the export rules. Logo and notes are optional.
// The returned error is a *ValidationError wrapping ErrValidation.
func Validate(inv Invoice) error {
	return check(validate.Struct(inv))
}

func check(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe.Tag()),
		})
	}

	return out
}

// fieldPath drops the root struct name: "Invoice.items[0].amount" -> "items[0].amount".
func fieldPath(ns string) string {
	_, path, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}

	return path
}

func message(tag string) string {
	if m, ok := messages[tag]; ok {
		return m
	}

	return "Invalid value"
}
