package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/nossahistoria/romantic/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "romantic-test.db")
	s, err := NewRepositoryFromFile(path, nil)
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBBoltStorage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	doc := []byte(`{"date":"2021-06-12","content":"Primeiro encontro"}`)

	t.Run("PutGet", func(t *testing.T) {
		if err := s.Put(ctx, "timeline", "t1", doc); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get(ctx, "timeline", "t1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != string(doc) {
			t.Errorf("expected %s, got %s", doc, got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		updated := []byte(`{"date":"2021-06-12","content":"Primeiro beijo"}`)
		if err := s.Put(ctx, "timeline", "t1", updated); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, _ := s.Get(ctx, "timeline", "t1")
		if string(got) != string(updated) {
			t.Errorf("expected overwrite, got %s", got)
		}
	})

	t.Run("Get Errors", func(t *testing.T) {
		if _, err := s.Get(ctx, "nonexistent", "t1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for nonexistent collection, got %v", err)
		}
		if _, err := s.Get(ctx, "timeline", "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for nonexistent record, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		s.Put(ctx, "timeline", "t0", doc) //nolint:errcheck
		s.Put(ctx, "letters", "l1", doc)  //nolint:errcheck

		records, err := s.List(ctx, "timeline")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].ID != "t0" || records[1].ID != "t1" {
			t.Errorf("expected id order, got %s, %s", records[0].ID, records[1].ID)
		}
	})

	t.Run("List Nonexistent Collection", func(t *testing.T) {
		records, err := s.List(ctx, "nonexistent")
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected 0 records, got %d", len(records))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(ctx, "timeline", "t0"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := s.Delete(ctx, "timeline", "t0"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := s.Delete(ctx, "nonexistent", "t0"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for nonexistent collection, got %v", err)
		}
	})
}

func TestBBoltBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.Batch(ctx, func(tx storage.BatchTx) error {
		tx.Put("quotes", "q1", []byte(`{}`)) //nolint:errcheck
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected batch error, got %v", err)
	}
	if _, err := s.Get(ctx, "quotes", "q1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected rolled back write, got %v", err)
	}

	err = s.Batch(ctx, func(tx storage.BatchTx) error {
		if err := tx.Put("quotes", "q1", []byte(`{}`)); err != nil {
			return err
		}
		return tx.Put("quotes", "q2", []byte(`{}`))
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}
	records, _ := s.List(ctx, "quotes")
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestBBoltPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewRepositoryFromFile(path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := s.Put(ctx, "settings", "1", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.Close()

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	s = NewRepository(db)
	defer s.Close()
	got, err := s.Get(ctx, "settings", "1")
	if err != nil || string(got) != `{"id":1}` {
		t.Errorf("expected persisted settings, got %s (%v)", got, err)
	}
}
