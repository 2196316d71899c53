// Package respond writes JSON responses for the API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []invoice.FieldError `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorResponse{Error: msg})
}

// Invalid writes 422 with every failing field. It reports false when err
// carries no field list.
func Invalid(w http.ResponseWriter, err error) bool {
	var verr *invoice.ValidationError
	if !errors.As(err, &verr) {
		return false
	}

	JSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid invoice", Fields: verr.Fields})

	return true
}
