// Package handler wires the issuance HTTP surface: POST /issue and
// GET /credentials, plus the router shared plumbing.
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
	issuanceservice "vouch/internal/issuance/service"
	"vouch/internal/platform/middleware"
	"vouch/pkg/platform/httputil"
)

// Service defines the issuance operations used by the handler.
type Service interface {
	Issue(ctx context.Context, doc map[string]json.RawMessage) (*issuanceservice.Result, error)
	List(ctx context.Context) ([]credential.Record, error)
	WorkerID() string
}

// Handler maps issuance endpoints to the issuance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an issuance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts issuance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/issue", h.HandleIssue)
	r.Get("/credentials", h.HandleList)
}

// IssueResponse is the response body for credential issuance.
type IssueResponse struct {
	Status   string    `json:"status"`
	WorkerID string    `json:"workerId"`
	IssuedAt time.Time `json:"issuedAt"`
	Message  string    `json:"message"`
}

// ListResponse is the response body for the credential listing.
type ListResponse struct {
	Credentials []credential.Record `json:"credentials"`
	Count       int                 `json:"count"`
	WorkerID    string              `json:"workerId"`
}

// HandleIssue handles POST /issue. A first-time document answers 201 issued;
// a duplicate answers 200 already_issued carrying the original record's
// worker and timestamp, never this request's.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	doc, ok := httputil.DecodeObject(w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Issue(ctx, doc)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	record := result.Record
	if result.Created {
		httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
			Status:   "issued",
			WorkerID: record.WorkerID,
			IssuedAt: record.IssuedAt,
			Message:  fmt.Sprintf("credential issued by %s", record.WorkerID),
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, IssueResponse{
		Status:   "already_issued",
		WorkerID: record.WorkerID,
		IssuedAt: record.IssuedAt,
		Message:  fmt.Sprintf("credential already issued by %s", record.WorkerID),
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

var _ Service = (*issuanceservice.Service)(nil)
