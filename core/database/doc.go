// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to properly configure MySQL (production)
// and sqlite (development/tests) connections based on the application's
// configuration.
//
// # Connect
//
// The generic Connect function establishes a connection to the database. It
// knows nothing about the application schema; schema expectations live in the
// feature packages.
//
// # Schema Inspection
//
// The package includes tools to inspect the database schema. The sync feature
// uses them at startup to verify that every client-mutable table carries the
// columns the reconciliation engine relies on (id, organization_id,
// updated_at).
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "jobs")
package database
