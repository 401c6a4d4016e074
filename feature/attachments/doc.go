// Package attachments stores job-site files (photos, signatures, documents)
// in object storage, namespaced per organization and job.
package attachments
