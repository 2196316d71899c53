package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/invoicer/internal/export"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/ident"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/render"
)

var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

type Handler struct {
	svc      *export.Service
	surface  export.Surface
	editor   *invoice.Service
	uploader export.Uploader
	now      func() time.Time
}

// NewHandler serves exports of the editor's draft. uploader may be nil, in
// which case logos are embedded as data URLs and ?store=true is refused.
func NewHandler(svc *export.Service, surface export.Surface, editor *invoice.Service, uploader export.Uploader) *Handler {
	return &Handler{
		svc:      svc,
		surface:  surface,
		editor:   editor,
		uploader: uploader,
		now:      time.Now,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/export", h.export)
	r.Post("/logo", h.uploadLogo)
}

type storedResponse struct {
	URL string `json:"url"`
}

type logoResponse struct {
	Logo string `json:"logo"`
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	inv := h.editor.Resolved()
	name := export.FileName(inv.InvoiceNumber, h.now())

	if r.URL.Query().Get("store") == "true" {
		url, err := h.svc.ExportAndStore(r.Context(), h.surface, inv.InvoiceNumber)
		if err != nil {
			writeError(w, err)
			return
		}

		respond.JSON(w, http.StatusCreated, storedResponse{URL: url})

		return
	}

	if r.URL.Query().Get("format") == "zip" {
		h.bundle(w, r, inv, strings.TrimSuffix(name, ".pdf"))
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), h.surface, &buf); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write pdf", "error", err)
	}
}

func (h *Handler) bundle(w http.ResponseWriter, r *http.Request, inv invoice.Invoice, base string) {
	doc, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer

	err = h.svc.Bundle(r.Context(), h.surface, base, []export.File{{Name: base + ".json", Body: doc}}, &buf)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".zip"))

	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}

func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, render.MaxLogoBytes+1<<20)

	if err := r.ParseMultipartForm(render.MaxLogoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "logo is too large", http.StatusRequestEntityTooLarge)
			return
		}

		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)

		return
	}

	file, _, err := r.FormFile("logo")
	if err != nil {
		http.Error(w, "logo field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	b, err := io.ReadAll(io.LimitReader(file, render.MaxLogoBytes+1))
	if err != nil {
		http.Error(w, "failed to read logo", http.StatusBadRequest)
		return
	}

	if len(b) > render.MaxLogoBytes {
		http.Error(w, "logo is too large", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := http.DetectContentType(b)

	ext, ok := logoExtensions[contentType]
	if !ok {
		http.Error(w, "unsupported image type "+contentType, http.StatusUnsupportedMediaType)
		return
	}

	if _, err := render.CheckLogo(b); err != nil {
		if errors.Is(err, render.ErrLogoTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}

		http.Error(w, "logo is not a valid image", http.StatusUnsupportedMediaType)

		return
	}

	ref := render.DataURL(contentType, b)

	if h.uploader != nil {
		url, err := h.uploader.Upload(r.Context(), "logos/"+ident.NewID()+ext, contentType, bytes.NewReader(b))
		if err != nil {
			slog.Error("failed to store logo", "error", err)
			http.Error(w, "failed to store logo", http.StatusBadGateway)

			return
		}

		ref = url
	}

	if err := h.editor.UpdateField(r.Context(), invoice.FieldLogo, ref); err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, logoResponse{Logo: ref})
}

func writeError(w http.ResponseWriter, err error) {
	if respond.Invalid(w, err) {
		return
	}

	switch {
	case errors.Is(err, export.ErrInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, export.ErrNoUploader):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		slog.Error("export failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
