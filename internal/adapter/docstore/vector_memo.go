package docstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"labkb/internal/domain"
)

// Vector memoization. Embedding the whole corpus is the expensive part of an
// index build, so the embedded vector set is stashed in its own bucket keyed
// by a fingerprint of the document set. A fingerprint or model mismatch, or
// any decode error, simply misses; the index recomputes and overwrites.

type storedVector struct {
	Vector []float32 `json:"v"`
}

// Fingerprint derives a stable identifier for the current document set from
// the store path and each document's id, update time and count.
func (s *BoltStore) Fingerprint() (string, error) {
	docs, err := s.List()
	if err != nil {
		return "", err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%d\n", s.db.Path(), len(docs))
	for _, doc := range docs {
		fmt.Fprintf(h, "%s:%d\n", doc.ID, doc.UpdatedAt.Unix())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SaveVectors persists the embedded vector set under the given fingerprint,
// replacing whatever was memoized before.
func (s *BoltStore) SaveVectors(fingerprint, model string, vectors map[string][]float32) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketVectors); err != nil {
			return err
		}
		b, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		for id, vec := range vectors {
			data, err := json.Marshal(storedVector{Vector: vec})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyVectorFingerprint, []byte(fingerprint)); err != nil {
			return err
		}
		return meta.Put(keyVectorModel, []byte(model))
	})
	if err != nil {
		return &domain.PersistenceError{Op: "save vectors", Err: err}
	}
	return nil
}

// LoadVectors returns the memoized vector set if it matches the fingerprint
// and embedding model. Any mismatch or load error reports a miss; the memo
// is an optimization, never a source of truth.
func (s *BoltStore) LoadVectors(fingerprint, model string) (map[string][]float32, bool) {
	vectors := make(map[string][]float32)
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if string(meta.Get(keyVectorFingerprint)) != fingerprint {
			return fmt.Errorf("fingerprint mismatch")
		}
		if string(meta.Get(keyVectorModel)) != model {
			return fmt.Errorf("embedding model mismatch")
		}

		return tx.Bucket(bucketVectors).ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return err
			}
			vectors[string(k)] = stored.Vector
			return nil
		})
	})
	if err != nil || len(vectors) == 0 {
		return nil, false
	}
	return vectors, true
}
