package reconcile

import "time"

// Table identifies a record collection that offline clients are allowed to
// mutate. The set is closed: adding a mutable collection means adding a
// constant here, not editing a string list somewhere else.
type Table string

const (
	// TableJobs holds field-service work orders.
	TableJobs Table = "jobs"
	// TableCustomers holds customer master records.
	TableCustomers Table = "customers"
	// TableAppointments holds scheduled site visits.
	TableAppointments Table = "appointments"
	// TableInvoices holds invoice records.
	TableInvoices Table = "invoices"
)

// Tables returns all mutable collections in a stable order.
func Tables() []Table {
	return []Table{TableJobs, TableCustomers, TableAppointments, TableInvoices}
}

// ParseTable maps a wire-level table name onto the closed set of mutable
// collections. ok is false for anything outside the set, including
// collections that exist in the database but must never be written through
// a client queue (audit_log, organizations, users).
func ParseTable(name string) (Table, bool) {
	switch Table(name) {
	case TableJobs, TableCustomers, TableAppointments, TableInvoices:
		return Table(name), true
	default:
		return "", false
	}
}

// Identity is the already-authenticated caller on whose behalf a batch is
// reconciled. Authentication itself happens upstream; the engine only
// records who acted and scopes record access to their organization.
type Identity struct {
	ActorID        string
	OrganizationID string
}

// Mutation is a single field-level edit queued by a client while offline.
type Mutation struct {
	// MutationID is the client-assigned correlation key echoed in the result.
	MutationID string

	// Action is the client's declared operation kind (currently always
	// "update"; carried through for audit context).
	Action string

	// Table is the raw wire-level collection name. It is validated against
	// the mutable-table set during reconciliation, not at decode time.
	Table string

	// RecordID identifies the record being edited.
	RecordID string

	// Fields maps field name to the client's intended new value.
	Fields map[string]Value

	// OriginTimestamp is the client wall-clock instant at which the edit was
	// made, recorded before it entered the offline queue.
	OriginTimestamp time.Time
}

// Outcome classifies how a mutation fared.
type Outcome string

const (
	// OutcomeApplied means every requested field change was written.
	OutcomeApplied Outcome = "applied"
	// OutcomePartial means some fields were written and some conflicted.
	OutcomePartial Outcome = "partial"
	// OutcomeRejected means nothing was written.
	OutcomeRejected Outcome = "rejected"
)

// Conflict describes one field where the server's value changed after the
// client's edit was made and the two sides disagree.
type Conflict struct {
	Field       string `json:"field"`
	ClientValue Value  `json:"client_value"`
	ServerValue Value  `json:"server_value"`
}

// Result is the reconciliation outcome for a single mutation.
type Result struct {
	MutationID string     `json:"mutation_id"`
	Outcome    Outcome    `json:"outcome"`
	Conflicts  []Conflict `json:"conflicts"`
}

// AuditReason explains why an audit entry was written.
type AuditReason string

const (
	// ReasonRowNotFound records a mutation whose target record was missing
	// or could not be read or written.
	ReasonRowNotFound AuditReason = "row_not_found"
	// ReasonFieldCollision records a mutation with at least one field
	// conflict.
	ReasonFieldCollision AuditReason = "field_collision"
)

// AuditEntry is the durable trace of a conflict or rejection. Entries are
// append-only and are never read back by the engine.
type AuditEntry struct {
	Actor           Identity
	Table           Table
	RecordID        string
	MutationID      string
	Reason          AuditReason
	Conflicts       []Conflict
	ClientTimestamp time.Time
}

// Fields that clients can never change through the sync queue. They are
// stripped silently rather than reported as conflicts.
const (
	fieldID        = "id"
	fieldCreatedAt = "created_at"
	fieldOrg       = "organization_id"
)

func isProtectedField(name string) bool {
	return name == fieldID || name == fieldCreatedAt || name == fieldOrg
}
