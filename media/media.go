// Package media stores uploaded images. Files are saved as
// "<folder>/<uuid>.<ext>" either on local disk (mock mode) or in a Supabase
// storage bucket.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/webp"

	"github.com/nossahistoria/romantic/content"
	"github.com/nossahistoria/romantic/internal/uuid"
)

var (
	// ErrUnsupportedType is returned for anything but JPEG, PNG and WebP.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("image too large")
	// ErrEmpty is returned for a zero-byte upload.
	ErrEmpty = errors.New("empty upload")
)

// DefaultFolder is used when the requested folder slugs to nothing.
const DefaultFolder = "misc"

// allowedTypes maps accepted content types to the file extension and the
// format name reported by image.DecodeConfig.
var allowedTypes = map[string]struct{ ext, format string }{
	"image/jpeg": {"jpg", "jpeg"},
	"image/png":  {"png", "png"},
	"image/webp": {"webp", "webp"},
}

// Store persists uploaded bytes and maps stored paths to public URLs.
type Store interface {
	Save(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
}

// Uploader validates images and hands them to a Store.
type Uploader struct {
	store    Store
	maxBytes int64
	newID    func() string
	logger   *slog.Logger
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithLogger sets the logger for upload events.
func WithLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) { u.logger = logger }
}

// WithIDGenerator replaces the UUID generator used for file names.
func WithIDGenerator(fn func() string) UploaderOption {
	return func(u *Uploader) { u.newID = fn }
}

// NewUploader returns an Uploader accepting files up to maxMB megabytes.
// Values below 1 are raised to 1.
func NewUploader(store Store, maxMB int, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		store:    store,
		maxBytes: int64(max(1, maxMB)) * 1024 * 1024,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	return u
}

// MaxBytes is the upload size limit.
func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload validates and stores one image, returning its storage path.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, contentType, folder string) (string, error) {
	kind, ok := allowedTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > u.maxBytes {
		return "", fmt.Errorf("%w: limit is %s", ErrTooLarge, humanize.IBytes(uint64(u.maxBytes)))
	}
	if err := checkImage(data, kind.format); err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/%s.%s", Folder(folder), u.newID(), kind.ext)
	if err := u.store.Save(ctx, path, data, contentType); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	u.logger.Info("image uploaded", "path", path, "size", humanize.IBytes(uint64(len(data))))
	return path, nil
}

// PublicURL resolves a stored path. An empty path has no URL.
func (u *Uploader) PublicURL(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	return u.store.PublicURL(path), true
}

// Folder normalises a requested upload folder to a slug.
func Folder(folder string) string {
	if f := content.ToSlug(folder); f != "" {
		return f
	}
	return DefaultFolder
}

// checkImage decodes the image header and requires it to match the declared
// format, so a renamed file of another kind is refused.
func checkImage(data []byte, want string) error {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: not a decodable image", ErrUnsupportedType)
	}
	if format != want {
		return fmt.Errorf("%w: declared %s but file is %s", ErrUnsupportedType, want, format)
	}
	return nil
}
