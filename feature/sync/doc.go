// Package sync exposes the offline mutation reconciliation endpoint.
//
// Field technicians queue edits on their devices while disconnected and push
// them as a batch once back online. POST /sync/mutations accepts that batch,
// runs it through the reconciliation engine (core/reconcile), and returns a
// per-mutation outcome: applied, partial, or rejected, with the conflicting
// fields spelled out so the client can re-queue, discard, or ask the
// technician to resolve.
//
// The store subpackage provides the GORM-backed record store and append-only
// audit log the engine is wired with in production.
package sync
