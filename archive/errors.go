package archive

import "errors"

var (
	// ErrNotFound is returned when no record matches the given key or link.
	ErrNotFound = errors.New("synarchive: record not found")

	// ErrKeyImmutable is returned when an update attempts to modify a record's key.
	ErrKeyImmutable = errors.New("synarchive: key cannot be modified")

	// ErrLinkImmutable is returned when an update attempts to modify a record's link.
	ErrLinkImmutable = errors.New("synarchive: link cannot be modified")

	// ErrCardinality is returned when more than one upstream association
	// record matches a single key.
	ErrCardinality = errors.New("synarchive: multiple upstream records share one key")

	// ErrIntegrity is returned when post-delete verification finds records
	// that the cascade should have removed. It signals a partially applied
	// multi-table cascade, not a retryable condition.
	ErrIntegrity = errors.New("synarchive: cascade verification failed")

	// ErrUnknownSubject is returned when a subject name is not registered.
	ErrUnknownSubject = errors.New("synarchive: subject not registered")
)
