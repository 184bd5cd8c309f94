// Package storage provides the storage abstraction for site content. Content
// is kept as JSON documents addressed by (collection, id).
package storage

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Record is one stored document.
type Record struct {
	ID   string
	Data []byte
}

// BatchTx provides writes within an atomic transaction.
type BatchTx interface {
	Put(collection, id string, data []byte) error
	Delete(collection, id string) error
}

// Repository defines the interface for content storage. List returns the
// records of a collection ordered by ID; callers impose their own ordering.
type Repository interface {
	Put(ctx context.Context, collection, id string, data []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	List(ctx context.Context, collection string) ([]Record, error)
	Delete(ctx context.Context, collection, id string) error
	Batch(ctx context.Context, fn func(tx BatchTx) error) error
}

// SortRecords orders records by ID in place.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}
