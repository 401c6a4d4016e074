package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"field-ops/core/reconcile"
	"field-ops/core/utils"

	"gorm.io/gorm"
)

// watermarkColumn is the system column the store stamps on every write and
// the engine compares origin timestamps against.
const watermarkColumn = "updated_at"

// Store implements reconcile.RecordStore on a GORM connection. Rows are read
// and written at column granularity; the store never materializes model
// structs for the mutable tables.
type Store struct {
	db *gorm.DB
}

// New creates a record store on the given connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get loads the record at recordID, scoped to the caller's organization.
func (s *Store) Get(ctx context.Context, table reconcile.Table, orgID, recordID string) (*reconcile.Record, error) {
	row := map[string]any{}
	err := s.db.WithContext(ctx).
		Table(string(table)).
		Where("id = ? AND organization_id = ?", recordID, orgID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reconcile.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", table, recordID, err)
	}

	record := &reconcile.Record{Fields: make(map[string]reconcile.Value, len(row))}
	for column, raw := range row {
		if column == watermarkColumn {
			ts, err := parseTimestamp(raw)
			if err != nil {
				return nil, fmt.Errorf("fetch %s/%s: bad %s: %w", table, recordID, watermarkColumn, err)
			}
			record.LastModifiedAt = ts
			continue
		}
		record.Fields[column] = columnValue(raw)
	}
	return record, nil
}

// Update writes the staged fields and the new watermark in a single UPDATE.
func (s *Store) Update(ctx context.Context, table reconcile.Table, orgID, recordID string, fields map[string]reconcile.Value, modifiedAt time.Time) error {
	updates := make(map[string]any, len(fields)+1)
	for field, value := range fields {
		updates[field] = columnFromValue(value)
	}
	updates[watermarkColumn] = modifiedAt

	tx := s.db.WithContext(ctx).
		Table(string(table)).
		Where("id = ? AND organization_id = ?", recordID, orgID).
		Updates(updates)
	if tx.Error != nil {
		return fmt.Errorf("update %s/%s: %w", table, recordID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		// Row deleted (or re-scoped) between fetch and write.
		return reconcile.ErrRecordNotFound
	}
	return nil
}

// timestampLayouts covers the formats drivers hand back when a DATETIME
// column does not scan straight into time.Time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		// Legacy rows without a watermark: treat as never modified, so any
		// client edit passes the freshness check.
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case []byte, string:
		text := utils.ToString(v)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, text); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", text)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", raw)
	}
}

// columnValue converts a scanned column into the engine's value variant.
// Text that parses as a JSON document is structured again, mirroring how
// columnFromValue flattens lists and objects on the way in.
func columnValue(raw any) reconcile.Value {
	switch v := raw.(type) {
	case nil:
		return reconcile.Null()
	case bool:
		return reconcile.Bool(v)
	case int:
		return reconcile.Number(float64(v))
	case int32:
		return reconcile.Number(float64(v))
	case int64:
		return reconcile.Number(float64(v))
	case uint64:
		return reconcile.Number(float64(v))
	case float32:
		return reconcile.Number(float64(v))
	case float64:
		return reconcile.Number(v)
	case time.Time:
		return reconcile.String(v.UTC().Format(time.RFC3339Nano))
	case []byte:
		return textValue(string(v))
	case string:
		return textValue(v)
	default:
		return reconcile.String(utils.ToString(v))
	}
}

func textValue(text string) reconcile.Value {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v reconcile.Value
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return reconcile.String(text)
}

// columnFromValue converts an engine value into something the driver can
// bind. Lists and objects are persisted as JSON text.
func columnFromValue(v reconcile.Value) any {
	switch v.Kind {
	case reconcile.KindNull:
		return nil
	case reconcile.KindString:
		return v.Str
	case reconcile.KindBool:
		return v.Bool
	case reconcile.KindNumber:
		// Whole numbers bind as integers so INT columns accept them.
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < math.MaxInt64 {
			return int64(v.Num)
		}
		return v.Num
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			// Marshal of the closed variant cannot fail on valid kinds;
			// store an explicit marker rather than dropping the write.
			return "null"
		}
		return string(encoded)
	}
}
