package client

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
)

const (
	defaultSuggestLimit = 5
	maxImportSize       = 10 << 20
)

type Handler struct {
	svc       *client.Service
	importSvc *importer.Service
}

func NewHandler(svc *client.Service, importSvc *importer.Service) *Handler {
	return &Handler{svc: svc, importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/suggest", h.suggest)
	r.Post("/import", h.importFile)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type createClientRequest struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Zip      string `json:"zip"`
}

type updateClientRequest struct {
	FullName *string `json:"fullName,omitempty"`
	Address  *string `json:"address,omitempty"`
	Zip      *string `json:"zip,omitempty"`
}

type importResponse struct {
	Imported int             `json:"imported"`
	Clients  []client.Client `json:"clients"`
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.svc.List())
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.FullName) == "" {
		http.Error(w, "fullName is required", http.StatusBadRequest)
		return
	}

	c, err := h.svc.Add(r.Context(), client.CreateParams{
		FullName: req.FullName,
		Address:  req.Address,
		Zip:      req.Zip,
	})
	if err != nil {
		slog.Error("failed to add client", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	respond.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), client.Patch{
		FullName: req.FullName,
		Address:  req.Address,
		Zip:      req.Zip,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, c)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	limit := defaultSuggestLimit

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		limit = n
	}

	out := h.svc.Suggest(r.URL.Query().Get("q"), limit)
	if out == nil {
		out = []client.Client{}
	}

	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatFromFilename(header.Filename)
	}

	params, err := h.importSvc.Parse(format, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	added, err := h.svc.Import(r.Context(), params)
	if err != nil {
		slog.Error("failed to import clients", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	respond.JSON(w, http.StatusCreated, importResponse{Imported: len(added), Clients: added})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, client.ErrNotFound) {
		http.Error(w, "client not found", http.StatusNotFound)
		return
	}

	slog.Error("client request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
