package store

import (
	"fmt"
	"strings"

	"field-ops/core/database"
	"field-ops/core/reconcile"

	"gorm.io/gorm"
)

// requiredColumns are the system columns the reconciliation engine relies on
// in every client-mutable table.
var requiredColumns = []string{"id", "organization_id", watermarkColumn}

// VerifySchema checks that every mutable table carries the columns the sync
// store depends on. Run at startup so a schema drift surfaces as one clear
// error instead of per-request failures.
func VerifySchema(db *gorm.DB) error {
	var missing []string
	for _, table := range reconcile.Tables() {
		columns, err := database.GetTableColumns(db, string(table))
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", table, err)
		}
		if len(columns) == 0 {
			missing = append(missing, string(table)+" (table absent)")
			continue
		}
		have := make(map[string]bool, len(columns))
		for _, col := range columns {
			have[col.Field] = true
		}
		for _, required := range requiredColumns {
			if !have[required] {
				missing = append(missing, string(table)+"."+required)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("sync schema preflight failed, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
