// Package jobs exposes the read API for work orders.
//
// Jobs are created and edited through the dispatch tooling and the sync
// feature; this package only serves them back, scoped to the caller's
// organization.
package jobs
