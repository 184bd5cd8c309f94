package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes uploads below a local directory that the server exposes
// under URLPrefix.
type DiskStore struct {
	root      string
	urlPrefix string
}

var _ Store = (*DiskStore)(nil)

// DefaultURLPrefix is where mock-mode uploads are served.
const DefaultURLPrefix = "/uploads/"

// NewDiskStore returns a DiskStore rooted at root.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root, urlPrefix: DefaultURLPrefix}
}

// Root is the directory uploads are written to.
func (s *DiskStore) Root() string { return s.root }

func (s *DiskStore) Save(ctx context.Context, path string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}
	// O_EXCL mirrors the remote store's no-upsert rule.
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating upload file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(target)
		return fmt.Errorf("writing upload file: %w", err)
	}
	return f.Close()
}

func (s *DiskStore) PublicURL(path string) string {
	return s.urlPrefix + path
}

func (s *DiskStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("invalid upload path %q", path)
	}
	return filepath.Join(s.root, clean), nil
}
