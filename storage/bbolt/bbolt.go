// Package bbolt provides a BBolt-backed storage repository. Each collection
// is a top-level bucket keyed by record ID.
package bbolt

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/nossahistoria/romantic/internal/util"
	"github.com/nossahistoria/romantic/storage"
)

// Store implements storage.Repository backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens a BBolt database at the given path and returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, collection, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putInTx(tx, collection, id, data)
	})
}

func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
		}
		v := b.Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
		}
		// Values are only valid for the life of the transaction.
		data = util.CopyBytes(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := []storage.Record{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			records = append(records, storage.Record{ID: string(k), Data: util.CopyBytes(v)})
			return nil
		})
	})
	return records, err
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteInTx(tx, collection, id)
	})
}

// Batch runs fn inside a single read-write transaction.
func (s *Store) Batch(ctx context.Context, fn func(tx storage.BatchTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltBatchTx{tx: tx})
	})
}

func putInTx(tx *bbolt.Tx, collection, id string, data []byte) error {
	b, err := tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", collection, err)
	}
	return b.Put([]byte(id), data)
}

func deleteInTx(tx *bbolt.Tx, collection, id string) error {
	b := tx.Bucket([]byte(collection))
	if b == nil || b.Get([]byte(id)) == nil {
		return fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	return b.Delete([]byte(id))
}

type boltBatchTx struct {
	tx *bbolt.Tx
}

func (btx *boltBatchTx) Put(collection, id string, data []byte) error {
	return putInTx(btx.tx, collection, id, data)
}

func (btx *boltBatchTx) Delete(collection, id string) error {
	return deleteInTx(btx.tx, collection, id)
}
