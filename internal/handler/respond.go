package handler

import (
	"encoding/json"
	"net/http"

	"github.com/safeplay/platform/internal/domain"
)

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondData writes a successful response in the standard envelope.
func RespondData(w http.ResponseWriter, status int, data interface{}) {
	RespondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// RespondError writes an error response in the standard envelope, detecting
// domain.AppError for status codes. The underlying error detail is exposed
// only in dev mode.
func RespondError(w http.ResponseWriter, err error, dev bool) {
	appErr, ok := err.(*domain.AppError)
	if !ok {
		appErr = domain.ErrInternal("internal server error", err)
	}

	body := map[string]interface{}{
		"success": false,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if dev && appErr.Cause != nil {
		body["error"] = appErr.Cause.Error()
	}
	RespondJSON(w, appErr.Status, body)
}

// DecodeJSON reads and decodes a JSON request body into dst. Bodies over
// 1 MiB are rejected.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}
