package invoice

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type totalsResponse struct {
	Subtotal json.Number `json:"subtotal"`
	Tax      json.Number `json:"tax"`
	Total    json.Number `json:"total"`
}

type stateResponse struct {
	Invoice invoice.Invoice `json:"invoice"`
	BillTo  invoice.BillTo  `json:"billTo"`
	Totals  totalsResponse  `json:"totals"`
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func toTotalsResponse(t invoice.Totals) totalsResponse {
	return totalsResponse{
		Subtotal: amount(t.Subtotal),
		Tax:      amount(t.Tax),
		Total:    amount(t.Total),
	}
}

func (h *Handler) state() stateResponse {
	st := h.svc.State()

	return stateResponse{
		Invoice: st.Invoice,
		BillTo:  st.BillTo,
		Totals:  toTotalsResponse(st.Totals),
	}
}
