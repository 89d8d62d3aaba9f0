package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// maxBodyBytes bounds request bodies when the server does not set its own
// limit.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps an error to its HTTP status and writes {code, message}.
// Server-side failures are logged and masked.
func writeAppError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		ae = errors.Wrap(err, errors.ErrCodeInternal, "unexpected error")
	}

	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.WithContext(r.Context()).Error("request failed",
			logging.String("path", r.URL.Path),
			logging.String(logging.FieldErrorCode, ae.Code.String()),
			logging.Err(err))
		writeJSON(w, status, ErrorResponse{
			Code:    ae.Code.String(),
			Message: errors.DefaultMessageForCode(ae.Code),
		})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Code:    ae.Code.String(),
		Message: ae.Message,
		Detail:  ae.Detail,
	})
}

// decodeJSON decodes a bounded request body into dst, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.InvalidParam("malformed JSON body").WithDetail(err.Error())
	}
	if dec.More() {
		return errors.InvalidParam("malformed JSON body").WithDetail("unexpected data after JSON object")
	}
	return nil
}
