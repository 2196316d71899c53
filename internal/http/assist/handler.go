package assist

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/invoicer/internal/assist"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type Handler struct {
	svc    *assist.Service
	editor *invoice.Service
}

func NewHandler(svc *assist.Service, editor *invoice.Service) *Handler {
	return &Handler{svc: svc, editor: editor}
}

type fillRequest struct {
	Prompt  string           `json:"prompt"`
	Invoice *invoice.Invoice `json:"invoice"`
}

// Fill answers POST /ai-fill. Without an invoice in the body the editor's
// draft is used; ?apply=true also merges the proposal into the draft.
func (h *Handler) Fill(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Missing prompt")
		return
	}

	inv := h.editor.Resolved()
	if req.Invoice != nil {
		inv = *req.Invoice
	}

	res, err := h.svc.Fill(r.Context(), req.Prompt, inv)
	if err != nil {
		if errors.Is(err, assist.ErrMissingPrompt) {
			respond.Error(w, http.StatusBadRequest, "Missing prompt")
			return
		}

		slog.Error("assist fill failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	if r.URL.Query().Get("apply") == "true" {
		if err := h.editor.ApplyPatch(r.Context(), res.Filled); err != nil {
			slog.Error("failed to apply assist proposal", "error", err)
			respond.Error(w, http.StatusInternalServerError, "Internal server error")

			return
		}
	}

	respond.JSON(w, http.StatusOK, res)
}
