// Package service holds the verification domain logic: local lookup first,
// then best-effort reconciliation against the issuance service, with the
// result cached locally so the next verify short-circuits.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"vouch/internal/credential"
	"vouch/internal/credential/store"
	"vouch/internal/platform/metrics"
	"vouch/internal/verification/issuer"
	"vouch/internal/verification/tracer"
	dErrors "vouch/pkg/domain-errors"
)

// IssuerClient asks the issuance service about a document. The dependency is
// advisory: every failure degrades to a local-only answer, never an error.
type IssuerClient interface {
	Issue(ctx context.Context, doc map[string]json.RawMessage) (*issuer.Result, error)
}

// Result reports a successful verification. The worker and timestamp are the
// original issuer's, whether the record was local or reconciled from the peer.
type Result struct {
	Record credential.Record
}

// Option configures the verification service.
type Option func(*Service)

// Service verifies credentials against its own store, reconciling misses
// with the issuance service when one is configured.
type Service struct {
	store    store.Store
	issuer   IssuerClient
	workerID string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	inflight singleflight.Group
}

// New creates a verification service bound to a store and worker identity.
func New(store store.Store, workerID string, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		workerID: workerID,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithIssuer configures the issuance service client used for reconciliation.
func WithIssuer(client IssuerClient) Option {
	return func(s *Service) {
		s.issuer = client
	}
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

// WithTracer configures a tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WorkerID returns this service's worker identity.
func (s *Service) WorkerID() string {
	return s.workerID
}

// Verify checks whether the document was previously issued. A local hit wins
// outright. On a miss the document is replayed against the issuance service;
// if that side had already issued it, the record is cached locally under the
// original issuer's worker id and the verification succeeds. A remote answer
// of freshly-issued, or any remote failure, leaves the credential unverified.
func (s *Service) Verify(ctx context.Context, doc map[string]json.RawMessage) (*Result, error) {
	content, err := credential.Canonicalize(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "An unexpected error occurred while verifying the credential")
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify,
		tracer.Int64(tracer.AttrContentLength, int64(len(content))))

	record, err := s.store.FindByContent(ctx, content)
	if err == nil {
		span.SetAttributes(tracer.Bool(tracer.AttrLocalHit, true))
		span.End(nil)
		s.countVerification("valid")
		return &Result{Record: record}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		span.End(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "An unexpected error occurred while verifying the credential")
	}
	span.SetAttributes(tracer.Bool(tracer.AttrLocalHit, false))

	record, reconciled := s.reconcile(ctx, content, doc)
	if reconciled {
		span.SetAttributes(
			tracer.Bool(tracer.AttrCachedFromPeer, true),
			tracer.String(tracer.AttrIssuerWorkerID, record.WorkerID),
		)
		span.End(nil)
		s.countVerification("valid")
		return &Result{Record: record}, nil
	}

	span.End(nil)
	s.countVerification("invalid")
	return nil, dErrors.New(dErrors.CodeNotFound, "credential not found or not issued")
}

// reconcile replays the document against the issuance service and caches an
// already-issued answer locally. Failures are swallowed: the peer is an
// advisory dependency, and a false "not issued" is the designed fallback.
// Concurrent misses for the same content share one remote call.
func (s *Service) reconcile(ctx context.Context, content string, doc map[string]json.RawMessage) (credential.Record, bool) {
	if s.issuer == nil {
		return credential.Record{}, false
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanReconcile)

	v, err, _ := s.inflight.Do(content, func() (any, error) {
		remote, err := s.issuer.Issue(ctx, doc)
		if err != nil {
			return nil, err
		}
		if remote.Status != issuer.StatusAlreadyIssued {
			// The issuance service had never seen it either. It has now
			// recorded the replay, but from this service's perspective the
			// credential is genuinely unverified.
			return remote.Status, nil
		}

		record, _, err := s.store.InsertOrGet(ctx, content, remote.WorkerID)
		if err != nil {
			return nil, err
		}
		return record, nil
	})
	if err != nil {
		span.AddEvent(tracer.EventRemoteCallFailed)
		span.End(err)
		s.logger.WarnContext(ctx, "could not reconcile with issuance service",
			"error", err,
		)
		s.countReconciliation(metrics.ReconcileFailed)
		return credential.Record{}, false
	}

	record, ok := v.(credential.Record)
	if !ok {
		status, _ := v.(string)
		span.SetAttributes(tracer.String(tracer.AttrRemoteStatus, status))
		span.End(nil)
		s.countReconciliation(metrics.ReconcileUnissued)
		return credential.Record{}, false
	}

	span.SetAttributes(tracer.String(tracer.AttrRemoteStatus, issuer.StatusAlreadyIssued))
	span.End(nil)
	s.logger.InfoContext(ctx, "credential reconciled from issuance service",
		"credential_id", record.ID,
		"issuer_worker_id", record.WorkerID,
	)
	s.countReconciliation(metrics.ReconcileCached)
	return record, true
}

// Sync pushes a known credential directly into this service's store under
// the given issuer worker id. The store stamps its own insert time, so the
// local timestamp governs listing order.
func (s *Service) Sync(ctx context.Context, content, workerID string) (credential.Record, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSync,
		tracer.String(tracer.AttrIssuerWorkerID, workerID))

	record, created, err := s.store.InsertOrGet(ctx, content, workerID)
	span.End(err)
	if err != nil {
		return credential.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "An unexpected error occurred while syncing the credential")
	}

	s.logger.InfoContext(ctx, "credential synced",
		"credential_id", record.ID,
		"issuer_worker_id", record.WorkerID,
		"newly_inserted", created,
	)
	return record, nil
}

// List returns every stored credential, most recently issued first.
func (s *Service) List(ctx context.Context) ([]credential.Record, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "An unexpected error occurred while retrieving credentials")
	}
	return records, nil
}

func (s *Service) countVerification(result string) {
	if s.metrics != nil {
		s.metrics.Verifications.WithLabelValues(result).Inc()
	}
}

func (s *Service) countReconciliation(outcome string) {
	if s.metrics != nil {
		s.metrics.Reconciliations.WithLabelValues(outcome).Inc()
	}
}
