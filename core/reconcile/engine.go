package reconcile

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Reconciler merges batches of offline field edits into authoritative
// records. It is stateless between calls; everything it knows about prior
// batches lives in the record store's watermarks.
type Reconciler struct {
	store  RecordStore
	audit  AuditLog
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Reconciler on top of the given store and audit sink.
func New(store RecordStore, audit AuditLog, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// ReconcileBatch processes every mutation independently and returns one
// result per mutation, in input order. A mutation's failure never aborts its
// siblings. Mutations are processed sequentially, so two edits to the same
// record within a batch each observe the previous one's write.
func (r *Reconciler) ReconcileBatch(ctx context.Context, caller Identity, mutations []Mutation) []Result {
	results := make([]Result, 0, len(mutations))
	for _, m := range mutations {
		results = append(results, r.reconcileOne(ctx, caller, m))
	}
	return results
}

func (r *Reconciler) reconcileOne(ctx context.Context, caller Identity, m Mutation) Result {
	res := Result{MutationID: m.MutationID, Conflicts: []Conflict{}}

	table, ok := ParseTable(m.Table)
	if !ok {
		// Protocol violation, not a data conflict: no record access, no
		// audit entry. Logged so operators can spot misbehaving clients.
		r.logger.Warn("mutation targets non-mutable table",
			zap.String("table", m.Table),
			zap.String("mutation_id", m.MutationID),
			zap.String("actor_id", caller.ActorID),
		)
		res.Outcome = OutcomeRejected
		return res
	}

	record, err := r.store.Get(ctx, table, caller.OrganizationID, m.RecordID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			r.logger.Error("record fetch failed",
				zap.String("table", string(table)),
				zap.String("record_id", m.RecordID),
				zap.Error(err),
			)
		}
		r.appendAudit(ctx, AuditEntry{
			Actor:           caller,
			Table:           table,
			RecordID:        m.RecordID,
			MutationID:      m.MutationID,
			Reason:          ReasonRowNotFound,
			Conflicts:       []Conflict{},
			ClientTimestamp: m.OriginTimestamp,
		})
		res.Outcome = OutcomeRejected
		return res
	}

	staged := make(map[string]Value)
	for _, field := range sortedFields(m.Fields) {
		if isProtectedField(field) {
			continue
		}
		clientValue := m.Fields[field]
		serverValue, exists := record.Fields[field]

		// The server side is considered unchanged when the client's edit is
		// at least as recent as the record's watermark, or when the field
		// never existed server-side.
		if !m.OriginTimestamp.Before(record.LastModifiedAt) || !exists {
			staged[field] = clientValue
			continue
		}
		if serverValue.Equal(clientValue) {
			// Both sides converged on the same value independently; applying
			// is harmless and flagging it would be noise.
			staged[field] = clientValue
			continue
		}
		res.Conflicts = append(res.Conflicts, Conflict{
			Field:       field,
			ClientValue: clientValue,
			ServerValue: serverValue,
		})
	}

	if len(staged) > 0 {
		if err := r.store.Update(ctx, table, caller.OrganizationID, m.RecordID, staged, r.now()); err != nil {
			r.logger.Error("record update failed",
				zap.String("table", string(table)),
				zap.String("record_id", m.RecordID),
				zap.Error(err),
			)
			// A failed write surfaces like a missing row: the caller sees a
			// rejection and can re-queue.
			r.appendAudit(ctx, AuditEntry{
				Actor:           caller,
				Table:           table,
				RecordID:        m.RecordID,
				MutationID:      m.MutationID,
				Reason:          ReasonRowNotFound,
				Conflicts:       []Conflict{},
				ClientTimestamp: m.OriginTimestamp,
			})
			return Result{MutationID: m.MutationID, Outcome: OutcomeRejected, Conflicts: []Conflict{}}
		}
	}

	switch {
	case len(res.Conflicts) == 0:
		// Includes the vacuous case where nothing was requested after
		// stripping protected fields.
		res.Outcome = OutcomeApplied
	case len(staged) > 0:
		res.Outcome = OutcomePartial
	default:
		res.Outcome = OutcomeRejected
	}

	if len(res.Conflicts) > 0 {
		r.appendAudit(ctx, AuditEntry{
			Actor:           caller,
			Table:           table,
			RecordID:        m.RecordID,
			MutationID:      m.MutationID,
			Reason:          ReasonFieldCollision,
			Conflicts:       res.Conflicts,
			ClientTimestamp: m.OriginTimestamp,
		})
	}
	return res
}

// appendAudit writes an audit entry. Audit failures are logged and swallowed:
// they never change the outcome returned for a mutation.
func (r *Reconciler) appendAudit(ctx context.Context, entry AuditEntry) {
	if err := r.audit.Append(ctx, entry); err != nil {
		r.logger.Error("audit append failed",
			zap.String("mutation_id", entry.MutationID),
			zap.String("reason", string(entry.Reason)),
			zap.Error(err),
		)
	}
}

// sortedFields returns the payload's field names in a stable order so that
// conflict lists are deterministic across runs.
func sortedFields(fields map[string]Value) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
