// internal/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ImagesPrefix is both the sub-directory under the upload root and the URL
// prefix the files are served from.
const ImagesPrefix = "campaign-images"

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// LocalImageStore writes uploaded images below Root/campaign-images.
type LocalImageStore struct {
	Root string
}

// Save stores the image as <uuid>-<name> and returns its public URL.
func (s *LocalImageStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	name := uuid.NewString() + "-" + SanitizeFilename(filename)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	return "/" + ImagesPrefix + "/" + name, nil
}

// Remove deletes an image previously returned by Save. A missing file is
// not an error.
func (s *LocalImageStore) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := strings.TrimPrefix(url, "/"+ImagesPrefix+"/")
	if name == url || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("not an image URL: %q", url)
	}
	if err := os.Remove(filepath.Join(s.Dir(), name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}

// Dir is the directory files are written to and served from.
func (s *LocalImageStore) Dir() string {
	return filepath.Join(s.Root, ImagesPrefix)
}

// SanitizeFilename drops any path component and replaces characters that
// are awkward in URLs.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "image"
	}
	return name
}
