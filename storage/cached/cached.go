// Package cached decorates a storage.Repository with a process-local TTL
// read cache. Writes through the decorator invalidate the affected
// collection, so readers see a mutation on their next request.
package cached

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/nossahistoria/romantic/internal/util"
	"github.com/nossahistoria/romantic/storage"
)

// DefaultTTL bounds staleness for writes that bypass the decorator.
const DefaultTTL = 60 * time.Second

type entry struct {
	doc     []byte
	records []storage.Record
}

// Repository is a caching storage.Repository.
//
// Every invalidation bumps a generation counter. A read that misses the
// cache stores its result only if the generation it saw before reaching the
// backend is still current, so a write that lands while the read is in
// flight cannot be masked by the older result.
type Repository struct {
	next  storage.Repository
	cache *ttlcache.Cache[string, entry]

	mu   sync.Mutex
	gens map[string]uint64 // per collection
	all  uint64            // bumped by InvalidateAll
}

var _ storage.Repository = (*Repository)(nil)

// New wraps next. A ttl of zero selects DefaultTTL. Call Start to run the
// expiry loop and Stop to end it.
func New(next storage.Repository, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, entry](ttl),
		ttlcache.WithDisableTouchOnHit[string, entry](),
	)
	return &Repository{next: next, cache: cache, gens: make(map[string]uint64)}
}

// Start runs the expired-item cleanup loop until Stop is called.
func (r *Repository) Start() {
	go r.cache.Start()
}

// Stop ends the cleanup loop.
func (r *Repository) Stop() {
	r.cache.Stop()
}

func listKey(collection string) string { return collection + "|" }

func getKey(collection, id string) string { return collection + "|" + id }

// generation must be called with mu held. Both counters only grow, so
// their sum changes whenever either does.
func (r *Repository) generation(collection string) uint64 {
	return r.all + r.gens[collection]
}

func (r *Repository) snapshot(collection string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation(collection)
}

// store caches e under key unless collection was invalidated after gen was
// taken.
func (r *Repository) store(collection, key string, gen uint64, e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation(collection) != gen {
		return
	}
	r.cache.Set(key, e, ttlcache.DefaultTTL)
}

func (r *Repository) Get(ctx context.Context, collection, id string) ([]byte, error) {
	key := getKey(collection, id)
	if item := r.cache.Get(key); item != nil {
		return util.CopyBytes(item.Value().doc), nil
	}
	gen := r.snapshot(collection)
	doc, err := r.next.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	r.store(collection, key, gen, entry{doc: util.CopyBytes(doc)})
	return doc, nil
}

func (r *Repository) List(ctx context.Context, collection string) ([]storage.Record, error) {
	key := listKey(collection)
	if item := r.cache.Get(key); item != nil {
		return copyRecords(item.Value().records), nil
	}
	gen := r.snapshot(collection)
	records, err := r.next.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	r.store(collection, key, gen, entry{records: copyRecords(records)})
	return records, nil
}

func (r *Repository) Put(ctx context.Context, collection, id string, data []byte) error {
	defer r.Invalidate(collection)
	return r.next.Put(ctx, collection, id, data)
}

func (r *Repository) Delete(ctx context.Context, collection, id string) error {
	defer r.Invalidate(collection)
	return r.next.Delete(ctx, collection, id)
}

func (r *Repository) Batch(ctx context.Context, fn func(tx storage.BatchTx) error) error {
	defer r.InvalidateAll()
	return r.next.Batch(ctx, fn)
}

// Invalidate drops every cached entry of collection.
func (r *Repository) Invalidate(collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[collection]++
	prefix := listKey(collection)
	for _, key := range r.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Delete(key)
		}
	}
}

// InvalidateAll empties the cache.
func (r *Repository) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all++
	r.cache.DeleteAll()
}

// Len reports the number of cached entries.
func (r *Repository) Len() int {
	return r.cache.Len()
}

func copyRecords(records []storage.Record) []storage.Record {
	out := make([]storage.Record, len(records))
	for i, rec := range records {
		out[i] = storage.Record{ID: rec.ID, Data: util.CopyBytes(rec.Data)}
	}
	return out
}
