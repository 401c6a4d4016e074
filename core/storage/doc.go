// Package storage provides the object storage client used for job-site
// attachments (photos, signatures, documents).
//
// It wraps the MinIO SDK behind a Client interface so that features and
// tests can swap in mocks without a running storage service. The interface
// covers the operations the application actually performs: bucket checks and
// creation, object upload/download, listing, and removal.
//
// # Configuration
//
// The Config struct carries endpoint, credentials, bucket, region, and
// timeout settings, loaded through core/config.
//
// # Mocks
//
// The mocks subpackage contains a testify-based mock of the Client interface.
package storage
