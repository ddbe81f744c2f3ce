package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes callers are expected to branch on.
// Backend unavailability is recovered internally and never reaches the end
// caller as an error; InvalidQuery is the one hard client failure.
var (
	// ErrEmbeddingUnavailable means the embedding provider cannot be
	// reached. Retrieval degrades to lexical matching.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrInvalidQuery means the query is empty or malformed. No retrieval
	// is attempted.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNotFound means a requested document does not exist.
	ErrNotFound = errors.New("document not found")
)

// PersistenceError wraps a failed store write. The in-memory state has been
// rolled back; the caller must not assume the mutation took effect.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError wraps a failed external generation call. It is retried and
// eventually recovered via the extractive fallback; it only surfaces in logs
// and in the response's model tag.
type GenerationError struct {
	Provider string
	Status   int // HTTP status, 0 for transport failures
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation via %s failed with status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
