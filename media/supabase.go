package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBucket is the storage bucket used by the site.
const DefaultBucket = "romantic"

// SupabaseStore uploads to a Supabase storage bucket over its REST API.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
	maxRetries uint64
}

var _ Store = (*SupabaseStore)(nil)

// SupabaseOption configures a SupabaseStore.
type SupabaseOption func(*SupabaseStore)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) SupabaseOption {
	return func(s *SupabaseStore) { s.client = c }
}

// WithMaxRetries sets how many times a failed upload is retried.
func WithMaxRetries(n uint64) SupabaseOption {
	return func(s *SupabaseStore) { s.maxRetries = n }
}

// NewSupabaseStore returns a store writing to bucket at baseURL using the
// service-role key. An empty bucket selects DefaultBucket.
func NewSupabaseStore(baseURL, serviceKey, bucket string, opts ...SupabaseOption) *SupabaseStore {
	if bucket == "" {
		bucket = DefaultBucket
	}
	s := &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save uploads data without upsert; an existing object is an error.
// Server errors and transport failures are retried with exponential
// backoff, client errors are not.
func (s *SupabaseStore) Save(ctx context.Context, path string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(s.bucket), escapePath(path))

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
		req.Header.Set("apikey", s.serviceKey)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("x-upsert", "false")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			return nil
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		uerr := fmt.Errorf("storage upload failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(uerr)
		}
		return uerr
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, s.maxRetries), ctx))
}

func (s *SupabaseStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, url.PathEscape(s.bucket), escapePath(path))
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
