package reconcile

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by RecordStore.Get when no record exists at
// the given id within the caller's organization, and by Update when the
// write matched no row.
var ErrRecordNotFound = errors.New("record not found")

// Record is the server-held view of one row: an opaque bag of fields plus
// the watermark the engine compares origin timestamps against.
type Record struct {
	// Fields holds every mutable column of the row.
	Fields map[string]Value

	// LastModifiedAt is stamped by the store on every successful write.
	LastModifiedAt time.Time
}

// RecordStore abstracts the row storage the engine merges into. The engine
// never assumes compare-and-swap semantics from the store; the watermark
// comparison is its own concurrency control.
type RecordStore interface {
	// Get loads the record at recordID, scoped to the caller's organization.
	// Returns ErrRecordNotFound when the row is absent or out of scope.
	Get(ctx context.Context, table Table, orgID, recordID string) (*Record, error)

	// Update writes the given fields in a single update and stamps the
	// record's watermark to modifiedAt as part of the same write.
	Update(ctx context.Context, table Table, orgID, recordID string, fields map[string]Value, modifiedAt time.Time) error
}

// AuditLog is the append-only sink for conflict and rejection traces. The
// engine has write-only access; entries are inspected by humans, not code.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
}
