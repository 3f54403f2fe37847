package classifier

import (
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	modelBucket = "model"    // Bucket holding the persisted artifact pair
	scalerKey   = "scaler"   // Fitted scaler blob
	ensembleKey = "ensemble" // Fitted ensemble blob
)

// ModelStore persists the (scaler, ensemble) artifact pair in BoltDB. The two
// blobs are only ever written and read inside a single transaction so readers
// can never observe a scaler from one training run paired with an ensemble
// from another.
type ModelStore struct {
	db *bbolt.DB
}

// OpenModelStore opens (or creates) the model database under dataPath.
func OpenModelStore(dataPath string) (*ModelStore, error) {
	dbPath := filepath.Join(dataPath, "intent-models.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open model database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(modelBucket)); err != nil {
			return fmt.Errorf("create model bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ModelStore{db: db}, nil
}

// Close closes the database. Safe to call on a nil-db store.
func (s *ModelStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePair writes both artifact blobs in one transaction, replacing whatever
// pair was stored before.
func (s *ModelStore) SavePair(scaler, ensemble []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelBucket))
		if err := b.Put([]byte(scalerKey), scaler); err != nil {
			return fmt.Errorf("put scaler: %w", err)
		}
		if err := b.Put([]byte(ensembleKey), ensemble); err != nil {
			return fmt.Errorf("put ensemble: %w", err)
		}
		return nil
	})
}

// LoadPair reads both artifact blobs in one transaction. found is false when
// either half of the pair is absent.
func (s *ModelStore) LoadPair() (scaler, ensemble []byte, found bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelBucket))
		sv := b.Get([]byte(scalerKey))
		ev := b.Get([]byte(ensembleKey))
		if sv == nil || ev == nil {
			return nil
		}
		// Copies: bbolt values are only valid inside the transaction.
		scaler = append([]byte(nil), sv...)
		ensemble = append([]byte(nil), ev...)
		found = true
		return nil
	})
	return scaler, ensemble, found, err
}
