// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nossahistoria/romantic/internal/util"
	"github.com/nossahistoria/romantic/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// It backs mock mode and tests.
type Repository struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]map[string][]byte)}
}

func (r *Repository) Put(ctx context.Context, collection, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putLocked(collection, id, data)
	return nil
}

func (r *Repository) putLocked(collection, id string, data []byte) {
	if _, ok := r.data[collection]; !ok {
		r.data[collection] = make(map[string][]byte)
	}
	r.data[collection][id] = util.CopyBytes(data)
}

func (r *Repository) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.data[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	return util.CopyBytes(data), nil
}

func (r *Repository) List(ctx context.Context, collection string) ([]storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]storage.Record, 0, len(r.data[collection]))
	for id, data := range r.data[collection] {
		records = append(records, storage.Record{ID: id, Data: util.CopyBytes(data)})
	}
	storage.SortRecords(records)
	return records, nil
}

func (r *Repository) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(collection, id)
}

func (r *Repository) deleteLocked(collection, id string) error {
	if _, ok := r.data[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	delete(r.data[collection], id)
	return nil
}

// Batch executes fn within a batch transaction. On error, all writes are rolled back.
func (r *Repository) Batch(ctx context.Context, fn func(tx storage.BatchTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.snapshot()
	if err := fn(&memoryBatchTx{repo: r}); err != nil {
		r.data = snapshot
		return err
	}
	return nil
}

func (r *Repository) snapshot() map[string]map[string][]byte {
	cp := make(map[string]map[string][]byte, len(r.data))
	for collection, docs := range r.data {
		inner := make(map[string][]byte, len(docs))
		for id, data := range docs {
			inner[id] = data
		}
		cp[collection] = inner
	}
	return cp
}

type memoryBatchTx struct {
	repo *Repository
}

func (tx *memoryBatchTx) Put(collection, id string, data []byte) error {
	tx.repo.putLocked(collection, id, data)
	return nil
}

func (tx *memoryBatchTx) Delete(collection, id string) error {
	return tx.repo.deleteLocked(collection, id)
}
