package http

import (
	"encoding/json"
	"net/http"

	"tally/internal/apperr"
	"tally/internal/log"
)

// envelope is the uniform response shape. Total is present only on
// list responses; Message and Data are omitted when empty.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondData writes a success envelope carrying data.
func respondData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// respondList writes a success envelope carrying a collection plus its
// length.
func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Total: &total})
}

// respondError maps an application error to its status code and writes
// a failure envelope. Server errors carry only a generic message; the
// cause goes to the log.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.Kind(err)
	if kind == apperr.KindServer {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
	}
	writeJSON(w, statusForKind(kind), envelope{Success: false, Message: apperr.UserMessage(err)})
}

func statusForKind(kind apperr.ErrKind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON parses a request body into dst, capping the body size so a
// hostile client cannot exhaust memory.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid request body", err)
	}
	return nil
}
