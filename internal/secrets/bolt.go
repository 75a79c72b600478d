package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucketSecrets = "secrets" // key: secret name -> raw value

// BoltStore keeps secrets in a bbolt file, for hosts without a keychain.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating secrets directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &OperationError{Backend: "bolt", Operation: "open", Err: err}
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketSecrets))
		return err
	}); err != nil {
		db.Close()
		return nil, &OperationError{Backend: "bolt", Operation: "init", Err: err}
	}

	return &BoltStore{db: db}, nil
}

// Save stores value under key, replacing any previous value.
func (s *BoltStore) Save(key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSecrets)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return &OperationError{Backend: "bolt", Operation: "set", Err: err}
	}
	return nil
}

// Retrieve returns the value stored under key.
func (s *BoltStore) Retrieve(key string) (string, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(boltBucketSecrets)).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", &OperationError{Backend: "bolt", Operation: "get", Err: err}
	}
	if value == nil {
		return "", ErrNotFound
	}
	return string(value), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BoltStore) Delete(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSecrets)).Delete([]byte(key))
	})
	if err != nil {
		return &OperationError{Backend: "bolt", Operation: "delete", Err: err}
	}
	return nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
