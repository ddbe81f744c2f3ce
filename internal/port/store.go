package port

import "labkb/internal/domain"

// DocumentStore is the persistent knowledge base. Mutations are durable
// before they return; a write that cannot be persisted is rolled back and
// reported as a *domain.PersistenceError.
type DocumentStore interface {
	// Put adds or replaces a document.
	Put(doc domain.Document) error

	// Remove deletes a document. Returns domain.ErrNotFound if absent.
	Remove(id string) error

	// Get fetches a document by id. Returns domain.ErrNotFound if absent.
	Get(id string) (domain.Document, error)

	// List returns all documents ordered by id.
	List() ([]domain.Document, error)

	// SearchKeyword returns documents whose lower-cased title or content
	// contains the lower-cased query, in id order.
	SearchKeyword(query string) ([]domain.Document, error)

	// Count returns the number of stored documents.
	Count() (int, error)

	Close() error
}
