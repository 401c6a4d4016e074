package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory RecordStore for engine tests.
type memStore struct {
	mu         sync.Mutex
	records    map[string]*Record
	failGet    map[string]error
	failUpdate map[string]error
	getCalls   int
	updates    int
}

func newMemStore() *memStore {
	return &memStore{
		records:    make(map[string]*Record),
		failGet:    make(map[string]error),
		failUpdate: make(map[string]error),
	}
}

func storeKey(table Table, orgID, recordID string) string {
	return string(table) + "/" + orgID + "/" + recordID
}

func (s *memStore) put(table Table, orgID, recordID string, rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey(table, orgID, recordID)] = rec
}

func (s *memStore) Get(ctx context.Context, table Table, orgID, recordID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	key := storeKey(table, orgID, recordID)
	if err, ok := s.failGet[key]; ok {
		return nil, err
	}
	rec, ok := s.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	// Copy so callers can't mutate stored state through the returned record.
	fields := make(map[string]Value, len(rec.Fields))
	for k, v := range rec.Fields {
		fields[k] = v
	}
	return &Record{Fields: fields, LastModifiedAt: rec.LastModifiedAt}, nil
}

func (s *memStore) Update(ctx context.Context, table Table, orgID, recordID string, fields map[string]Value, modifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(table, orgID, recordID)
	if err, ok := s.failUpdate[key]; ok {
		return err
	}
	rec, ok := s.records[key]
	if !ok {
		return ErrRecordNotFound
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}
	rec.LastModifiedAt = modifiedAt
	s.updates++
	return nil
}

// memAudit is an in-memory AuditLog for engine tests.
type memAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
	failErr error
}

func (a *memAudit) Append(ctx context.Context, entry AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failErr != nil {
		return a.failErr
	}
	a.entries = append(a.entries, entry)
	return nil
}

var testCaller = Identity{ActorID: "tech-7", OrganizationID: "org-1"}

func newTestReconciler(store *memStore, audit *memAudit, at time.Time) *Reconciler {
	r := New(store, audit, zap.NewNop())
	r.now = func() time.Time { return at }
	return r
}

func TestReconcileBatch_ResultsMatchInputOrder(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	for i := 0; i < 3; i++ {
		store.put(TableJobs, "org-1", fmt.Sprintf("job-%d", i), &Record{
			Fields:         map[string]Value{"status": String("open")},
			LastModifiedAt: t0,
		})
	}
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	batch := []Mutation{
		{MutationID: "m-0", Table: "jobs", RecordID: "job-0", OriginTimestamp: t0.Add(time.Minute), Fields: map[string]Value{"status": String("done")}},
		{MutationID: "m-1", Table: "organizations", RecordID: "org-1", OriginTimestamp: t0, Fields: map[string]Value{"name": String("x")}},
		{MutationID: "m-2", Table: "jobs", RecordID: "missing", OriginTimestamp: t0, Fields: map[string]Value{"status": String("done")}},
		{MutationID: "m-3", Table: "jobs", RecordID: "job-2", OriginTimestamp: t0.Add(time.Minute), Fields: map[string]Value{"status": String("done")}},
	}
	results := r.ReconcileBatch(context.Background(), testCaller, batch)

	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, batch[i].MutationID, res.MutationID)
	}
	assert.Equal(t, OutcomeApplied, results[0].Outcome)
	assert.Equal(t, OutcomeRejected, results[1].Outcome)
	assert.Equal(t, OutcomeRejected, results[2].Outcome)
	assert.Equal(t, OutcomeApplied, results[3].Outcome)
}

func TestReconcileBatch_EmptyBatchIsNoOp(t *testing.T) {
	r := newTestReconciler(newMemStore(), &memAudit{}, time.Now())
	results := r.ReconcileBatch(context.Background(), testCaller, nil)
	assert.Empty(t, results)
}

func TestReconcileOne_FreshEditApplies(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0.Add(time.Hour)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("open")},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, now)

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0.Add(time.Minute),
		Fields:          map[string]Value{"status": String("done")},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeApplied, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)
	assert.Empty(t, audit.entries)

	rec := store.records[storeKey(TableJobs, "org-1", "job-1")]
	assert.True(t, String("done").Equal(rec.Fields["status"]))
	assert.Equal(t, now, rec.LastModifiedAt)
}

func TestReconcileOne_StaleEditConflicts(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("cancelled")},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0.Add(-time.Minute),
		Fields:          map[string]Value{"status": String("done")},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeRejected, results[0].Outcome)
	require.Len(t, results[0].Conflicts, 1)
	conflict := results[0].Conflicts[0]
	assert.Equal(t, "status", conflict.Field)
	assert.True(t, String("done").Equal(conflict.ClientValue))
	assert.True(t, String("cancelled").Equal(conflict.ServerValue))

	// Record untouched, watermark not advanced.
	rec := store.records[storeKey(TableJobs, "org-1", "job-1")]
	assert.True(t, String("cancelled").Equal(rec.Fields["status"]))
	assert.Equal(t, t0, rec.LastModifiedAt)
	assert.Zero(t, store.updates)

	// Audit entry carries exactly the returned conflicts.
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, ReasonFieldCollision, entry.Reason)
	assert.Equal(t, results[0].Conflicts, entry.Conflicts)
	assert.Equal(t, "m-1", entry.MutationID)
	assert.Equal(t, testCaller, entry.Actor)
	assert.Equal(t, TableJobs, entry.Table)
}

func TestReconcileOne_PartialApply(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("cancelled")},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0.Add(-time.Minute),
		Fields: map[string]Value{
			"status": String("done"),
			// Never set server-side, so it applies despite the stale origin.
			"notes": String("left key under mat"),
		},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomePartial, results[0].Outcome)
	require.Len(t, results[0].Conflicts, 1)
	assert.Equal(t, "status", results[0].Conflicts[0].Field)

	rec := store.records[storeKey(TableJobs, "org-1", "job-1")]
	assert.True(t, String("left key under mat").Equal(rec.Fields["notes"]))
	assert.True(t, String("cancelled").Equal(rec.Fields["status"]))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, ReasonFieldCollision, audit.entries[0].Reason)
	assert.Equal(t, results[0].Conflicts, audit.entries[0].Conflicts)
}

func TestReconcileOne_TableNotAllowed(t *testing.T) {
	store := newMemStore()
	audit := &memAudit{}
	r := newTestReconciler(store, audit, time.Now())

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "organizations",
		RecordID:        "org-1",
		OriginTimestamp: time.Now(),
		Fields:          map[string]Value{"name": String("evil corp")},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeRejected, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)
	// Protocol rejection: no record access and no audit entry.
	assert.Zero(t, store.getCalls)
	assert.Empty(t, audit.entries)
}

func TestReconcileOne_RecordNotFound(t *testing.T) {
	store := newMemStore()
	audit := &memAudit{}
	origin := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestReconciler(store, audit, origin.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "ghost",
		OriginTimestamp: origin,
		Fields:          map[string]Value{"status": String("done")},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeRejected, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, ReasonRowNotFound, entry.Reason)
	assert.Equal(t, "ghost", entry.RecordID)
	assert.Equal(t, origin, entry.ClientTimestamp)
	assert.Empty(t, entry.Conflicts)
}

func TestReconcileOne_ProtectedFieldsStripped(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields: map[string]Value{
			"id":              String("job-1"),
			"created_at":      String("2026-01-01T00:00:00Z"),
			"organization_id": String("org-1"),
			"status":          String("open"),
		},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0.Add(-time.Hour), // stale on purpose
		Fields: map[string]Value{
			"id":              String("forged"),
			"created_at":      String("1970-01-01T00:00:00Z"),
			"organization_id": String("org-2"),
			"status":          String("open"), // equal to server => converges
		},
	}})

	require.Len(t, results, 1)
	// Protected fields are dropped silently: they neither apply nor conflict.
	assert.Equal(t, OutcomeApplied, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)

	rec := store.records[storeKey(TableJobs, "org-1", "job-1")]
	assert.True(t, String("job-1").Equal(rec.Fields["id"]))
	assert.True(t, String("org-1").Equal(rec.Fields["organization_id"]))
	assert.True(t, String("2026-01-01T00:00:00Z").Equal(rec.Fields["created_at"]))
}

func TestReconcileOne_ConvergentValueIsNotAConflict(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	checklist := Object(map[string]Value{
		"steps": List(String("inspect"), String("replace filter")),
		"done":  Bool(true),
	})
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"checklist": checklist},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0.Add(-time.Hour), // stale, but values agree
		Fields: map[string]Value{"checklist": Object(map[string]Value{
			"steps": List(String("inspect"), String("replace filter")),
			"done":  Bool(true),
		})},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeApplied, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)
	assert.Empty(t, audit.entries)
}

func TestReconcileBatch_SameRecordSeesEarlierWrite(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0.Add(time.Hour)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("open"), "priority": String("low")},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, now)

	// The second mutation's origin predates the first one's write stamp, so
	// it must be evaluated against the watermark the first write advanced.
	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{
		{
			MutationID:      "m-1",
			Table:           "jobs",
			RecordID:        "job-1",
			OriginTimestamp: t0.Add(time.Minute),
			Fields:          map[string]Value{"status": String("assigned")},
		},
		{
			MutationID:      "m-2",
			Table:           "jobs",
			RecordID:        "job-1",
			OriginTimestamp: t0.Add(2 * time.Second), // before m-1's write stamp
			Fields:          map[string]Value{"priority": String("high")},
		},
	})

	require.Len(t, results, 2)
	assert.Equal(t, OutcomeApplied, results[0].Outcome)

	// m-2 is evaluated against the post-m-1 watermark (now), so its stale
	// origin makes the differing priority a conflict.
	assert.Equal(t, OutcomeRejected, results[1].Outcome)
	require.Len(t, results[1].Conflicts, 1)
	assert.Equal(t, "priority", results[1].Conflicts[0].Field)
}

func TestReconcileBatch_FailuresAreIsolated(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("open")},
		LastModifiedAt: t0,
	})
	store.put(TableJobs, "org-1", "job-2", &Record{
		Fields:         map[string]Value{"status": String("open")},
		LastModifiedAt: t0,
	})
	store.failGet[storeKey(TableJobs, "org-1", "job-1")] = fmt.Errorf("connection reset")
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{
		{MutationID: "m-1", Table: "jobs", RecordID: "job-1", OriginTimestamp: t0.Add(time.Minute), Fields: map[string]Value{"status": String("done")}},
		{MutationID: "m-2", Table: "jobs", RecordID: "job-2", OriginTimestamp: t0.Add(time.Minute), Fields: map[string]Value{"status": String("done")}},
	})

	require.Len(t, results, 2)
	// The store failure is surfaced as a rejection, like a missing row.
	assert.Equal(t, OutcomeRejected, results[0].Outcome)
	assert.Equal(t, OutcomeApplied, results[1].Outcome)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, ReasonRowNotFound, audit.entries[0].Reason)
}

func TestReconcileOne_UpdateFailureRejects(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("open")},
		LastModifiedAt: t0,
	})
	store.failUpdate[storeKey(TableJobs, "org-1", "job-1")] = fmt.Errorf("deadlock")
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0.Add(time.Minute),
		Fields:          map[string]Value{"status": String("done")},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeRejected, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, ReasonRowNotFound, audit.entries[0].Reason)
}

func TestReconcileOne_AuditFailureDoesNotChangeOutcome(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{failErr: fmt.Errorf("audit store down")}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("cancelled"), "priority": String("low")},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0.Add(-time.Minute),
		Fields: map[string]Value{
			"status": String("done"),
			"notes":  String("new field"),
		},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomePartial, results[0].Outcome)
	require.Len(t, results[0].Conflicts, 1)
}

func TestReconcileOne_EmptyPayloadAppliesVacuously(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("open")},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0,
		Fields:          map[string]Value{},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeApplied, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)
	// Nothing staged, so no write happened and the watermark stands still.
	assert.Zero(t, store.updates)
	assert.Empty(t, audit.entries)
}

func TestReconcileOne_EqualTimestampApplies(t *testing.T) {
	// Origin exactly equal to the watermark counts as fresh (>=, not >).
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	audit := &memAudit{}
	store.put(TableJobs, "org-1", "job-1", &Record{
		Fields:         map[string]Value{"status": String("open")},
		LastModifiedAt: t0,
	})
	r := newTestReconciler(store, audit, t0.Add(time.Hour))

	results := r.ReconcileBatch(context.Background(), testCaller, []Mutation{{
		MutationID:      "m-1",
		Table:           "jobs",
		RecordID:        "job-1",
		OriginTimestamp: t0,
		Fields:          map[string]Value{"status": String("done")},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeApplied, results[0].Outcome)
	assert.Empty(t, results[0].Conflicts)
}
