package store

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"garimpeiro/ofertaworker/pkg/errors"
)

const announcedBucket = "announced"

// BoltStore keeps announced identifiers in a bbolt database. Preferred over
// the text file when the worker runs on a persistent volume rather than a
// version-controlled checkout.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewStorage("bolt_store", "create store directory", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.NewStorage("bolt_store", "open bbolt db", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(announcedBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, errors.NewStorage("bolt_store", "init bucket", err)
	}

	return &BoltStore{db: db}, nil
}

// Load returns every announced identifier.
func (s *BoltStore) Load() (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(announcedBucket))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			ids[string(k)] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, errors.NewStorage("bolt_store", "load ids", err)
	}
	return ids, nil
}

// Append records one identifier. The stored value is the announcement time,
// useful when inspecting the database by hand.
func (s *BoltStore) Append(id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(announcedBucket))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}
		return bucket.Put([]byte(id), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return errors.NewStorage("bolt_store", "append id", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
