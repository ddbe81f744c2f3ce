package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"labkb/internal/domain"
)

var (
	bucketDocs    = []byte("docs")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")

	keySchemaVersion     = []byte("schema_version")
	keyVectorFingerprint = []byte("vector_fingerprint")
	keyVectorModel       = []byte("vector_model")
)

// schemaVersion is bumped when the stored layout changes; a mismatched
// database is cleared and rebuilt from scratch.
const schemaVersion = "1"

// BoltStore is the bbolt-backed document store. Every mutation runs in a
// single bolt transaction, so a failed write leaves the store unchanged.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		stored := meta.Get(keySchemaVersion)
		if stored != nil && string(stored) != schemaVersion {
			for _, b := range [][]byte{bucketDocs, bucketVectors} {
				if err := tx.DeleteBucket(b); err != nil {
					return err
				}
				if _, err := tx.CreateBucket(b); err != nil {
					return err
				}
			}
		}
		return meta.Put(keySchemaVersion, []byte(schemaVersion))
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type docRecord struct {
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt int64             `json:"updated_at"`
}

func (s *BoltStore) Put(doc domain.Document) error {
	rec := docRecord{
		Title:     doc.Title,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		UpdatedAt: doc.UpdatedAt.Unix(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return &domain.PersistenceError{Op: "put", Err: err}
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
	if err != nil {
		return &domain.PersistenceError{Op: "put", Err: err}
	}
	return nil
}

func (s *BoltStore) Remove(id string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		if b.Get([]byte(id)) == nil {
			return domain.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
	if err == domain.ErrNotFound {
		return err
	}
	if err != nil {
		return &domain.PersistenceError{Op: "remove", Err: err}
	}
	return nil
}

func (s *BoltStore) Get(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return domain.ErrNotFound
		}
		var rec docRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		doc = recordToDocument(id, rec)
		return nil
	})
	return doc, err
}

// List returns all documents. Bolt iterates keys in byte order, so the
// result order is deterministic across calls.
func (s *BoltStore) List() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			docs = append(docs, recordToDocument(string(k), rec))
			return nil
		})
	})
	return docs, err
}

// SearchKeyword returns documents whose lower-cased title or content
// contains the lower-cased query. No ranking beyond match presence; ties
// keep the store's id iteration order.
func (s *BoltStore) SearchKeyword(query string) ([]domain.Document, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	var matches []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if strings.Contains(strings.ToLower(rec.Title), needle) ||
				strings.Contains(strings.ToLower(rec.Content), needle) {
				matches = append(matches, recordToDocument(string(k), rec))
			}
			return nil
		})
	})
	return matches, err
}

func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketDocs).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func recordToDocument(id string, rec docRecord) domain.Document {
	return domain.Document{
		ID:        id,
		Title:     rec.Title,
		Content:   rec.Content,
		Metadata:  rec.Metadata,
		UpdatedAt: time.Unix(rec.UpdatedAt, 0),
	}
}
