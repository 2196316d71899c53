package invoice

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type Handler struct {
	svc     *invoice.Service
	archive invoice.Repository
}

// NewHandler serves the working draft. archive backs the /archive routes;
// pass invoice.NewActiveRepository(svc) when snapshots are not kept.
func NewHandler(svc *invoice.Service, archive invoice.Repository) *Handler {
	return &Handler{svc: svc, archive: archive}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.replace)
	r.Delete("/", h.clear)
	r.Patch("/fields/{field}", h.updateField)
	r.Put("/bill-to/{field}", h.setBillTo)
	r.Post("/client", h.selectClient)
	r.Delete("/client", h.clearClient)
	r.Post("/items", h.addItem)
	r.Patch("/items/{index}", h.updateItem)
	r.Delete("/items/{index}", h.removeItem)
	r.Post("/patch", h.applyPatch)
	r.Post("/number", h.regenerateNumber)
	r.Post("/validate", h.validate)

	r.Route("/archive", func(r chi.Router) {
		r.Post("/", h.archiveSave)
		r.Get("/{id}", h.archiveGet)
		r.Post("/{id}/load", h.archiveLoad)
		r.Delete("/{id}", h.archiveDelete)
	})
}

type valueRequest struct {
	Value string `json:"value"`
}

type itemRequest struct {
	Field invoice.ItemField `json:"field"`
	Value string            `json:"value"`
}

type clientRequest struct {
	ClientID string `json:"clientId"`
}

type numberResponse struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

type archiveResponse struct {
	ID string `json:"id"`
}

func (h *Handler) get(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.state())
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	var inv invoice.Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.mutated(w, h.svc.Replace(r.Context(), inv))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.mutated(w, h.svc.Clear(r.Context()))
}

func (h *Handler) updateField(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	field := invoice.Field(chi.URLParam(r, "field"))
	h.mutated(w, h.svc.UpdateField(r.Context(), field, req.Value))
}

func (h *Handler) setBillTo(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	field := invoice.Field(chi.URLParam(r, "field"))
	h.mutated(w, h.svc.SetBillToField(r.Context(), field, req.Value))
}

func (h *Handler) selectClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.mutated(w, h.svc.SelectClient(r.Context(), req.ClientID))
}

func (h *Handler) clearClient(w http.ResponseWriter, r *http.Request) {
	h.mutated(w, h.svc.ClearClient(r.Context()))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.AddItem(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, h.state())
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.mutated(w, h.svc.UpdateItem(r.Context(), index, req.Field, req.Value))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	h.mutated(w, h.svc.RemoveItem(r.Context(), index))
}

func (h *Handler) applyPatch(w http.ResponseWriter, r *http.Request) {
	var p invoice.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.mutated(w, h.svc.ApplyPatch(r.Context(), p))
}

func (h *Handler) regenerateNumber(w http.ResponseWriter, r *http.Request) {
	code, err := h.svc.RegenerateNumber(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, numberResponse{InvoiceNumber: code})
}

func (h *Handler) validate(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.Validate(); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) archiveSave(w http.ResponseWriter, r *http.Request) {
	inv := h.svc.Active()

	if err := h.archive.Save(r.Context(), inv); err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, archiveResponse{ID: inv.ID})
}

func (h *Handler) archiveGet(w http.ResponseWriter, r *http.Request) {
	inv, err := h.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, inv)
}

func (h *Handler) archiveLoad(w http.ResponseWriter, r *http.Request) {
	inv, err := h.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	h.mutated(w, h.svc.Replace(r.Context(), inv))
}

func (h *Handler) archiveDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.archive.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// mutated answers a mutation with the new state or the mapped error.
func (h *Handler) mutated(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, h.state())
}

func writeError(w http.ResponseWriter, err error) {
	if respond.Invalid(w, err) {
		return
	}

	switch {
	case errors.Is(err, invoice.ErrIndexOutOfRange),
		errors.Is(err, invoice.ErrNotFound),
		errors.Is(err, invoice.ErrNotActive),
		errors.Is(err, invoice.ErrClientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, invoice.ErrUnknownField),
		errors.Is(err, invoice.ErrInvalidValue),
		errors.Is(err, invoice.ErrNotBillToField):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("invoice request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
