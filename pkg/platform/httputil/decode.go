package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "vouch/pkg/domain-errors"
)

// DecodeJSON decodes a JSON request body into the target type.
// Returns the decoded value and true on success.
// On failure, writes an error response and returns nil, false.
//
// Usage:
//
//	req, ok := httputil.DecodeJSON[SyncRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Request body must be a valid JSON object"))
		return nil, false
	}
	return &req, true
}

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// DecodeAndValidate combines JSON decoding with request validation.
// It decodes the JSON body, then calls Validate() if the target type
// implements Validatable.
func DecodeAndValidate[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}

	if v, ok := any(req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "invalid request",
				"error", err,
				"request_id", requestID,
			)
			var domainErr *dErrors.Error
			if errors.As(err, &domainErr) {
				WriteError(w, err)
			} else {
				WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
			}
			return nil, false
		}
	}

	return req, true
}

// DecodeObject decodes a request body that must be a JSON object into a raw
// key/value document. A body that is absent, null, an array, or a primitive is
// rejected with 400 and the caller stops. Credential payloads are arbitrary
// documents, so this is the only validation the issue/verify paths perform.
func DecodeObject(w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (map[string]json.RawMessage, bool) {
	var doc map[string]json.RawMessage
	err := json.NewDecoder(r.Body).Decode(&doc)
	if err != nil || doc == nil {
		logger.WarnContext(ctx, "request body is not a JSON object",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Request body must be a valid JSON object"))
		return nil, false
	}
	return doc, true
}
