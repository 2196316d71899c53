package assist

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

var (
	amountPattern  = regexp.MustCompile(`\$?([0-9]+(?:\.[0-9]{1,2})?)`)
	datePattern    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	namePattern    = regexp.MustCompile(`(?i)(?:name is|named|my name is)\s+([A-Z][a-zA-Z ]{1,50})`)
	companyPattern = regexp.MustCompile(`(?i)(?:for|company|client)\s+([A-Z][a-zA-Z0-9 &.-]{1,60})`)
)

// Heuristic extracts what it can from prompt with fixed patterns: the first
// number becomes the first item's amount, the first ISO date the invoice
// date, plus a name and a company after their usual lead-in words.
func Heuristic(prompt string, inv invoice.Invoice) invoice.Patch {
	var p invoice.Patch

	if m := amountPattern.FindStringSubmatch(prompt); m != nil && len(inv.Items) > 0 {
		if amount, err := decimal.NewFromString(m[1]); err == nil {
			items := append([]invoice.Item(nil), inv.Items...)
			items[0].Amount = amount
			p.Items = items
		}
	}

	if m := datePattern.FindStringSubmatch(prompt); m != nil {
		p.InvoiceDate = new(m[1])
	}

	if m := namePattern.FindStringSubmatch(prompt); m != nil {
		p.FullName = new(strings.TrimSpace(m[1]))
	}

	if m := companyPattern.FindStringSubmatch(prompt); m != nil {
		p.BillToCompany = new(strings.TrimSpace(m[1]))
	}

	return p
}
