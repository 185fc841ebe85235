// Package handler wires the verification HTTP surface: POST /verify,
// POST /sync, and GET /credentials.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vouch/internal/credential"
	"vouch/internal/platform/middleware"
	verificationservice "vouch/internal/verification/service"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
)

// Service defines the verification operations used by the handler.
type Service interface {
	Verify(ctx context.Context, doc map[string]json.RawMessage) (*verificationservice.Result, error)
	Sync(ctx context.Context, content, workerID string) (credential.Record, error)
	List(ctx context.Context) ([]credential.Record, error)
	WorkerID() string
}

// Handler maps verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
	r.Post("/sync", h.HandleSync)
	r.Get("/credentials", h.HandleList)
}

// VerifyResponse is the response body for credential verification.
type VerifyResponse struct {
	Valid    bool       `json:"valid"`
	WorkerID string     `json:"workerId,omitempty"`
	IssuedAt *time.Time `json:"issuedAt,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// SyncRequest is the request body for the out-of-band sync endpoint. All
// three fields are required; issuedAt is validated for presence but the
// store stamps its own insert time.
type SyncRequest struct {
	Content  string `json:"content"`
	WorkerID string `json:"workerId"`
	IssuedAt string `json:"issuedAt"`
}

// Validate checks that all required sync fields are present.
func (r *SyncRequest) Validate() error {
	if r.Content == "" || r.WorkerID == "" || r.IssuedAt == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Missing required fields: content, workerId, issuedAt")
	}
	return nil
}

// SyncResponse is the response body for a successful sync.
type SyncResponse struct {
	Message  string `json:"message"`
	WorkerID string `json:"workerId"`
}

// ListResponse is the response body for the credential listing.
type ListResponse struct {
	Credentials []credential.Record `json:"credentials"`
	Count       int                 `json:"count"`
	WorkerID    string              `json:"workerId"`
}

// HandleVerify handles POST /verify. An unknown credential answers 404 with
// valid=false rather than an error envelope; remote reconciliation failures
// never surface as 5xx.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	doc, ok := httputil.DecodeObject(w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, doc)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, VerifyResponse{
				Valid:   false,
				Message: "credential not found or not issued",
			})
			return
		}

		h.logger.ErrorContext(ctx, "failed to verify credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	record := result.Record
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Valid:    true,
		WorkerID: record.WorkerID,
		IssuedAt: &record.IssuedAt,
		Message:  fmt.Sprintf("credential verified - originally issued by %s", record.WorkerID),
	})
}

// HandleSync handles POST /sync.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndValidate[SyncRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.Sync(ctx, req.Content, req.WorkerID); err != nil {
		h.logger.ErrorContext(ctx, "failed to sync credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, SyncResponse{
		Message:  "Credential synced successfully",
		WorkerID: h.service.WorkerID(),
	})
}

// HandleList handles GET /credentials.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	records, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list credentials",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Credentials: records,
		Count:       len(records),
		WorkerID:    h.service.WorkerID(),
	})
}

var _ Service = (*verificationservice.Service)(nil)
