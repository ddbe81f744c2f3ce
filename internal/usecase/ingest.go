package usecase

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"labkb/internal/domain"
	"labkb/internal/port"
)

// IndexInvalidator marks derived retrieval state stale after a document
// mutation.
type IndexInvalidator interface {
	Invalidate()
}

// IngestUseCase handles document lifecycle operations. Every mutation
// invalidates the semantic index so the next query sees the new document
// set.
type IngestUseCase struct {
	store       port.DocumentStore
	invalidator IndexInvalidator
	logger      *zap.Logger
}

func NewIngestUseCase(store port.DocumentStore, invalidator IndexInvalidator, logger *zap.Logger) *IngestUseCase {
	return &IngestUseCase{
		store:       store,
		invalidator: invalidator,
		logger:      logger,
	}
}

// AddDocument stores a document, replacing any existing one with the same
// id.
func (u *IngestUseCase) AddDocument(doc domain.Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("document id must not be empty")
	}
	if strings.TrimSpace(doc.Title) == "" && strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("document %s has no title and no content", doc.ID)
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	if err := u.store.Put(doc); err != nil {
		return err
	}
	u.invalidator.Invalidate()
	u.logger.Info("document stored",
		zap.String("id", doc.ID),
		zap.String("title", doc.Title),
		zap.Int("content_len", len(doc.Content)))
	return nil
}

// RemoveDocument deletes a document and everything derived from it.
// Returns domain.ErrNotFound if the document does not exist.
func (u *IngestUseCase) RemoveDocument(id string) error {
	if err := u.store.Remove(id); err != nil {
		return err
	}
	u.invalidator.Invalidate()
	u.logger.Info("document removed", zap.String("id", id))
	return nil
}

// GetDocument fetches one document by id.
func (u *IngestUseCase) GetDocument(id string) (domain.Document, error) {
	return u.store.Get(id)
}

// ListDocuments returns all stored documents ordered by id.
func (u *IngestUseCase) ListDocuments() ([]domain.Document, error) {
	return u.store.List()
}

// Count returns the number of stored documents.
func (u *IngestUseCase) Count() (int, error) {
	return u.store.Count()
}
