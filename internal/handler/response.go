package handler

import (
	"encoding/json"
	"net/http"

	"github.com/critforge/api/internal/model"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Respond translates a service result into an HTTP response: the given status
// on success, the status carried by the error otherwise.
func Respond[T any](w http.ResponseWriter, status int, result model.ServiceResult[T]) {
	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}
	WriteJSON(w, status, result)
}

// failureEnvelope mirrors the failed half of a service result without the
// unused data field.
type failureEnvelope struct {
	Success bool                `json:"success"`
	Error   *model.ServiceError `json:"error"`
}

// WriteFailure writes a failed service result envelope.
func WriteFailure(w http.ResponseWriter, serr *model.ServiceError) {
	if serr == nil {
		serr = model.NewServiceError(model.CodeOperationFailed, "An unexpected error occurred")
	}
	status := serr.StatusCode
	if status == 0 {
		status = serr.Code.HTTPStatus()
	}
	WriteJSON(w, status, failureEnvelope{Success: false, Error: serr})
}

// WriteErrorCode writes a failure envelope built from a code and message.
func WriteErrorCode(w http.ResponseWriter, code model.ErrorCode, message string) {
	WriteFailure(w, model.NewServiceError(code, message))
}

// writeAuthRequired is the backstop for routes reached without an
// authenticated user. The auth middleware normally rejects these first.
func writeAuthRequired(w http.ResponseWriter) {
	WriteFailure(w, &model.ServiceError{
		Message:    "Authentication required",
		Code:       model.CodeUnauthorizedAccess,
		StatusCode: http.StatusUnauthorized,
	})
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
