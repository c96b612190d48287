package storage

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/liuxin327/heartbeat/pkg/errors"
)

// DefaultMaxPhotoBytes caps a single uploaded photo at 10MB.
const DefaultMaxPhotoBytes = 10 << 20

var (
	// ErrNotAnImage rejects uploads whose content is not a recognised image format.
	ErrNotAnImage = apperrors.New("UPLOAD_NOT_IMAGE", "Uploaded file is not an image", http.StatusBadRequest)
	// ErrPhotoTooLarge rejects uploads over the configured size limit.
	ErrPhotoTooLarge = apperrors.New("UPLOAD_TOO_LARGE", "Uploaded file is too large", http.StatusBadRequest)
)

// extensions by sniffed content type; sniffing decides, not the client filename.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalStore persists uploaded photos on the local filesystem and exposes
// them under a URL prefix served as static files.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

// LocalStoreOption customises the LocalStore.
type LocalStoreOption func(*LocalStore)

// WithMaxPhotoBytes overrides the per-file size limit.
func WithMaxPhotoBytes(limit int64) LocalStoreOption {
	return func(s *LocalStore) {
		if limit > 0 {
			s.maxBytes = limit
		}
	}
}

// WithStoreClock overrides the clock used in generated filenames.
func WithStoreClock(now func() time.Time) LocalStoreOption {
	return func(s *LocalStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLocalStore creates the upload directory and returns a store rooted there.
func NewLocalStore(dir, baseURL string, opts ...LocalStoreOption) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("storage: upload directory is required")
	}
	if baseURL == "" {
		return nil, errors.New("storage: base URL is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload directory: %w", err)
	}

	store := &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: DefaultMaxPhotoBytes,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// SavePhoto validates and writes one uploaded photo, returning its public URL.
// The filename is derived from the owner, timestamp, and slot index so clients
// cannot influence the path.
func (s *LocalStore) SavePhoto(userID string, index int, data []byte) (string, error) {
	if int64(len(data)) > s.maxBytes {
		return "", ErrPhotoTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrNotAnImage
	}

	name := fmt.Sprintf("%s_%d_%d%s", userID, s.now().UnixNano(), index, ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write photo: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// Remove deletes a previously stored photo given its public URL. Unknown URLs
// are ignored so cleanup stays idempotent.
func (s *LocalStore) Remove(url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}

	name := path.Base(strings.TrimPrefix(url, s.baseURL+"/"))
	if name == "." || name == "/" || name == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove photo: %w", err)
	}
	return nil
}

// Dir reports the directory static files are served from.
func (s *LocalStore) Dir() string {
	return s.dir
}

// BaseURL reports the public URL prefix for stored photos.
func (s *LocalStore) BaseURL() string {
	return s.baseURL
}
