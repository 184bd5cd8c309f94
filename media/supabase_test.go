package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStore_Save(t *testing.T) {
	var gotPath, gotAuth, gotKey, gotType, gotUpsert string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"Key":"romantic/carousel/a.png"}`) //nolint:errcheck
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL+"/", "service-key", "")
	err := s.Save(context.Background(), "carousel/a.png", []byte("img"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/romantic/carousel/a.png", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, []byte("img"), gotBody)
}

func TestSupabaseStore_PublicURL(t *testing.T) {
	s := NewSupabaseStore("https://abc.supabase.co", "k", "fotos")
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/fotos/letters/x.webp", s.PublicURL("letters/x.webp"))
}

func TestSupabaseStore_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"Duplicate"}`, http.StatusConflict)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "k", "")
	err := s.Save(context.Background(), "a/b.png", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSupabaseStore_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "k", "", WithMaxRetries(3))
	require.NoError(t, s.Save(context.Background(), "a/b.png", []byte("x"), "image/png"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSupabaseStore_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "k", "", WithMaxRetries(1))
	err := s.Save(context.Background(), "a/b.png", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
