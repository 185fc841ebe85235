package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vouch/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope shared by both services.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and
// the {error, message} envelope. Internal detail never reaches the client:
// non-domain errors collapse into a generic 500 response.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:   DomainCodeToReason(domainErr.Code),
			Message: domainErr.Message,
		})
		return
	}

	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   DomainCodeToReason(dErrors.CodeInternal),
		Message: "An unexpected error occurred",
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToReason translates domain error codes to the reason phrase used
// in the "error" field of the JSON envelope.
func DomainCodeToReason(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "Not Found"
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return "Bad Request"
	case dErrors.CodeUnavailable:
		return "Service Unavailable"
	case dErrors.CodeTimeout:
		return "Gateway Timeout"
	default:
		return "Internal Server Error"
	}
}
