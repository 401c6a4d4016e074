// Package reconcile merges batches of offline, field-level edits into
// authoritative server records without silently destroying concurrent
// server-side changes.
//
// Field technicians work disconnected: their devices queue edits locally and
// push them as a batch once back online. By the time a batch arrives, the
// records it touches may have moved on. The engine decides, per field,
// whether the client's value may be applied or must be surfaced as a
// conflict.
//
// # Disposition rules
//
// For each mutation the engine loads the target record and compares the
// mutation's origin timestamp against the record's last-modified watermark:
//
//   - Origin timestamp at or after the watermark: the client saw the current
//     state, every requested field is applied.
//   - Watermark is newer, but the field never existed server-side: applied.
//   - Watermark is newer and both sides hold the same value: applied without
//     flagging a conflict (the two sides converged independently).
//   - Watermark is newer and the values differ: the field is withheld and
//     reported as a conflict.
//
// Applied fields are written in a single update that also advances the
// watermark, which is what keeps the comparison correct for later mutations
// against the same record.
//
// # Architecture
//
// The engine is wired from two injected capabilities:
//
//   - RecordStore: get-by-id and field-level update against the row storage.
//   - AuditLog: an append-only sink receiving a durable entry for every
//     conflict and every missing-record rejection.
//
// Both are satisfied by GORM-backed implementations in feature/sync/store
// and by in-memory fakes in tests. The engine itself holds no state across
// calls; the evolving watermarks in the store are its only memory.
package reconcile
