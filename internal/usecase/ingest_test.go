package usecase

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"labkb/internal/adapter/docstore"
	"labkb/internal/domain"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate() { c.calls++ }

func newIngest(t *testing.T) (*IngestUseCase, *countingInvalidator) {
	t.Helper()
	store, err := docstore.NewBoltStore(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	inv := &countingInvalidator{}
	return NewIngestUseCase(store, inv, zap.NewNop()), inv
}

func TestAddDocument(t *testing.T) {
	uc, inv := newIngest(t)

	err := uc.AddDocument(domain.Document{ID: "d1", Title: "Notes", Content: "Some content."})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if inv.calls != 1 {
		t.Errorf("invalidations = %d, want 1", inv.calls)
	}

	doc, err := uc.GetDocument("d1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Title != "Notes" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestAddDocumentValidation(t *testing.T) {
	uc, inv := newIngest(t)

	if err := uc.AddDocument(domain.Document{Title: "no id"}); err == nil {
		t.Error("expected error for empty id")
	}
	if err := uc.AddDocument(domain.Document{ID: "d1"}); err == nil {
		t.Error("expected error for empty document")
	}
	if inv.calls != 0 {
		t.Errorf("invalidations = %d for rejected documents", inv.calls)
	}
}

func TestRemoveDocument(t *testing.T) {
	uc, inv := newIngest(t)
	if err := uc.AddDocument(domain.Document{ID: "d1", Title: "Notes", Content: "x"}); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	if err := uc.RemoveDocument("d1"); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if inv.calls != 2 {
		t.Errorf("invalidations = %d, want 2", inv.calls)
	}
	if _, err := uc.GetDocument("d1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := uc.RemoveDocument("d1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double remove, got %v", err)
	}
	if inv.calls != 2 {
		t.Errorf("invalidations = %d after failed remove, want 2", inv.calls)
	}
}

func TestListAndCount(t *testing.T) {
	uc, _ := newIngest(t)
	for _, id := range []string{"c", "a", "b"} {
		if err := uc.AddDocument(domain.Document{ID: id, Title: id, Content: "x"}); err != nil {
			t.Fatalf("AddDocument(%s): %v", id, err)
		}
	}

	docs, err := uc.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if docs[i].ID != want {
			t.Errorf("docs[%d].ID = %q, want %q", i, docs[i].ID, want)
		}
	}

	n, err := uc.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
