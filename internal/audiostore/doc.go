// Package audiostore abstracts recording storage behind a small Store
// interface with local filesystem and S3-compatible backends.
package audiostore
