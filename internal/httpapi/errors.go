package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in APIError.Error.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeNotFound          = "not_found"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeForbidden         = "forbidden"
	CodeUnauthorized      = "unauthorized"
	CodeLedger            = "ledger_error"
	CodeStreamUnsupported = "stream_unsupported"
	CodeInternal          = "internal_error"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// WriteJSON writes v with status. Responses describe a live run and are
// marked no-store.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeLedgerError reports a failed run-ledger query.
func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, http.StatusInternalServerError, CodeLedger, err.Error())
}
