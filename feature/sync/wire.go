package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"field-ops/core/reconcile"
)

// wireMutation mirrors the offline queue's wire encoding, one element of the
// "mutations" array pushed by a reconnecting client.
type wireMutation struct {
	MutationID   string                     `json:"mutation_id"`
	Action       string                     `json:"action"`
	Table        string                     `json:"table"`
	RecordID     string                     `json:"record_id"`
	Payload      map[string]reconcile.Value `json:"payload"`
	TimestampUTC time.Time                  `json:"timestamp_utc"`
}

type pushRequest struct {
	Mutations []wireMutation `json:"mutations"`
}

// DecodeBatch parses a request body into mutations. It fails on anything
// that is not a non-empty array of well-formed mutations; in that case no
// mutation is attempted at all.
func DecodeBatch(body []byte) ([]reconcile.Mutation, error) {
	var req pushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.Mutations) == 0 {
		return nil, fmt.Errorf("mutations must be a non-empty array")
	}

	mutations := make([]reconcile.Mutation, 0, len(req.Mutations))
	for i, wm := range req.Mutations {
		m, err := wm.toMutation()
		if err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
		mutations = append(mutations, m)
	}
	return mutations, nil
}

func (w wireMutation) toMutation() (reconcile.Mutation, error) {
	switch {
	case w.MutationID == "":
		return reconcile.Mutation{}, fmt.Errorf("missing mutation_id")
	case w.Table == "":
		return reconcile.Mutation{}, fmt.Errorf("missing table")
	case w.RecordID == "":
		return reconcile.Mutation{}, fmt.Errorf("missing record_id")
	case w.TimestampUTC.IsZero():
		return reconcile.Mutation{}, fmt.Errorf("missing timestamp_utc")
	}

	fields := w.Payload
	if fields == nil {
		fields = map[string]reconcile.Value{}
	}
	return reconcile.Mutation{
		MutationID:      w.MutationID,
		Action:          w.Action,
		Table:           w.Table,
		RecordID:        w.RecordID,
		Fields:          fields,
		OriginTimestamp: w.TimestampUTC.UTC(),
	}, nil
}
