// Package render lays out the invoice the same way for every surface: the
// terminal preview, the raster snapshot behind PDF export, and view mode.
package render

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type Kind int

const (
	KindTitle Kind = iota
	KindHeading
	KindField    // Cells: label, value
	KindItemHead // Cells: description, qty, amount, line total
	KindItem     // Cells: description, qty, amount, line total
	KindTotal    // Cells: label, value
	KindGrand    // Cells: label, value
	KindText     // Cells: text
	KindGap
)

type Line struct {
	Kind  Kind
	Cells []string
}

// FormatAmount prints money with two decimals and no currency symbol.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// TaxLabel is "Tax Rate (12%)", or just "Tax Rate" when no rate is set.
func TaxLabel(rate decimal.NullDecimal) string {
	if !rate.Valid {
		return "Tax Rate"
	}

	return "Tax Rate (" + rate.Decimal.String() + "%)"
}

// Layout is the read-only view of inv. inv should already be resolved so
// bill-to values reflect a linked client.
func Layout(inv invoice.Invoice, totals invoice.Totals) []Line {
	field := func(label, value string) Line {
		return Line{Kind: KindField, Cells: []string{label, value}}
	}

	lines := []Line{
		{Kind: KindTitle, Cells: []string{"INVOICE"}},
		field("Full Name", inv.FullName),
		field("Role", inv.Role),
		{Kind: KindGap},
		{Kind: KindHeading, Cells: []string{"Bill To"}},
		field("Company", inv.BillToCompany),
		field("Address", inv.BillToAddress),
		field("Zip Code", inv.BillToZip),
		{Kind: KindGap},
		field("Invoice #", inv.InvoiceNumber),
		field("Invoice Date", inv.InvoiceDate),
		field("Due Date", inv.DueDate),
		{Kind: KindGap},
		{Kind: KindItemHead, Cells: []string{"Description", "Qty", "Amount", "Total"}},
	}

	for _, it := range inv.Items {
		lines = append(lines, Line{Kind: KindItem, Cells: []string{
			it.Description,
			strconv.Itoa(it.Quantity),
			FormatAmount(it.Amount),
			FormatAmount(invoice.LineTotal(it)),
		}})
	}

	lines = append(lines,
		Line{Kind: KindGap},
		Line{Kind: KindTotal, Cells: []string{"Subtotal", FormatAmount(totals.Subtotal)}},
		Line{Kind: KindTotal, Cells: []string{TaxLabel(inv.TaxRate), FormatAmount(totals.Tax)}},
		Line{Kind: KindGrand, Cells: []string{"Total", FormatAmount(totals.Total)}},
		Line{Kind: KindGap},
		Line{Kind: KindHeading, Cells: []string{"Payment Details"}},
		field("Method", inv.PayVia),
		field("Name", inv.AccountName),
		field("Email", inv.AccountEmail),
	)

	if inv.Notes != "" {
		lines = append(lines,
			Line{Kind: KindGap},
			Line{Kind: KindHeading, Cells: []string{"Notes"}},
			Line{Kind: KindText, Cells: []string{inv.Notes}},
		)
	}

	return lines
}
