package sync

import (
	"context"

	"field-ops/core/reconcile"

	"go.uber.org/zap"
)

// Service wires the reconciliation engine to its storage capabilities.
type Service struct {
	reconciler *reconcile.Reconciler
	logger     *zap.Logger
}

// NewService creates a new sync service on top of the given record store and
// audit sink.
func NewService(store reconcile.RecordStore, audit reconcile.AuditLog, logger *zap.Logger) *Service {
	return &Service{
		reconciler: reconcile.New(store, audit, logger),
		logger:     logger,
	}
}

// Push reconciles a batch of offline mutations on behalf of the caller.
func (s *Service) Push(ctx context.Context, caller reconcile.Identity, mutations []reconcile.Mutation) []reconcile.Result {
	return s.reconciler.ReconcileBatch(ctx, caller, mutations)
}
