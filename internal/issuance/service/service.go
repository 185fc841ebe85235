// Package service holds the issuance domain logic: canonicalize the incoming
// document and insert-or-fetch it under this worker's identity.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"vouch/internal/credential"
	"vouch/internal/credential/store"
	"vouch/internal/platform/metrics"
	dErrors "vouch/pkg/domain-errors"
)

// Result reports the outcome of an issue call. Record always carries the
// original insert's worker and timestamp, whether or not this call created it.
type Result struct {
	Record  credential.Record
	Created bool
}

// Option configures the issuance service.
type Option func(*Service)

// Service issues credentials against its own store. Issue is idempotent and
// safe to retry: only the first submission of a document mutates the store.
type Service struct {
	store    store.Store
	workerID string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates an issuance service bound to a store and this process's worker identity.
func New(store store.Store, workerID string, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		workerID: workerID,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics configures a metric set for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WorkerID returns this service's worker identity.
func (s *Service) WorkerID() string {
	return s.workerID
}

// Issue canonicalizes the document and records it if it has not been seen
// before. A duplicate submission returns the original record unchanged.
func (s *Service) Issue(ctx context.Context, doc map[string]json.RawMessage) (*Result, error) {
	content, err := credential.Canonicalize(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "An unexpected error occurred while processing the credential")
	}

	record, created, err := s.store.InsertOrGet(ctx, content, s.workerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "An unexpected error occurred while processing the credential")
	}

	if created {
		s.logger.InfoContext(ctx, "credential issued",
			"credential_id", record.ID,
			"worker_id", record.WorkerID,
		)
		if s.metrics != nil {
			s.metrics.CredentialsIssued.Inc()
		}
	} else {
		s.logger.InfoContext(ctx, "credential already issued",
			"credential_id", record.ID,
			"issuer_worker_id", record.WorkerID,
		)
		if s.metrics != nil {
			s.metrics.DuplicateIssues.Inc()
		}
	}

	return &Result{Record: record, Created: created}, nil
}

// List returns every stored credential, most recently issued first.
func (s *Service) List(ctx context.Context) ([]credential.Record, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "An unexpected error occurred while retrieving credentials")
	}
	return records, nil
}
