package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/palmhaven/order-api/internal/orders"
	"github.com/palmhaven/order-api/internal/paystack"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, code int, msg, details string) {
	writeJSON(w, code, errorBody{Success: false, Error: msg, Details: details})
}

// writeErr maps the domain error taxonomy onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	var ve *orders.ValidationError
	var ue *paystack.UpstreamError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error(), "")
	case errors.Is(err, orders.ErrPaymentAlreadyInitialized):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", "")
	case errors.Is(err, orders.ErrOwnershipMismatch):
		writeError(w, http.StatusForbidden, err.Error(), "")
	case errors.As(err, &ue):
		writeError(w, http.StatusInternalServerError, "payment gateway error", ue.Message)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}
