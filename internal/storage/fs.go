package storage

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/catatan/internal/models"
)

var (
	allowedExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".webp": true, ".svg": true,
	}

	mimeToExt = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}
)

// FS implements ImageStore backed by the local file system.
type FS struct {
	root string // absolute path to the image directory
}

// NewFS creates an image store rooted at dir, creating it when missing.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the image directory.
func (f *FS) Root() string {
	return f.root
}

// safePath validates that key is a plain file name (no separators, no
// traversal) and returns its absolute path under root.
func (f *FS) safePath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: empty image key")
	}
	cleaned := filepath.Clean(key)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("storage: invalid image key: %s", key)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key escapes image root: %s", key)
	}
	return abs, nil
}

// DetectExt sniffs data and returns the file extension to store it under.
// Only image content is accepted.
func DetectExt(data []byte, name string) (string, error) {
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if ext, ok := mimeToExt[ct]; ok {
		return ext, nil
	}
	// SVG sniffs as XML or text; trust the extension for those only.
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".svg" && (ct == "text/xml" || ct == "text/plain") {
		return ext, nil
	}
	return "", ErrNotImage
}

// Put writes data atomically under a fresh uuid key.
func (f *FS) Put(data []byte, name string) (models.ImageRef, error) {
	ext, err := DetectExt(data, name)
	if err != nil {
		return models.ImageRef{}, err
	}
	ref := models.ImageRef{Key: uuid.NewString() + ext}
	abs, err := f.safePath(ref.Key)
	if err != nil {
		return models.ImageRef{}, err
	}
	if err := writeAtomic(abs, data); err != nil {
		return models.ImageRef{}, err
	}
	return ref, nil
}

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, ".catatan-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Bytes returns the raw bytes of an image.
func (f *FS) Bytes(ref models.ImageRef) ([]byte, error) {
	abs, err := f.safePath(ref.Key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", ref.Key, err)
	}
	return data, nil
}

// Path returns the absolute file path of an image.
func (f *FS) Path(ref models.ImageRef) (string, error) {
	return f.safePath(ref.Key)
}

// Delete removes an image.
func (f *FS) Delete(ref models.ImageRef) error {
	abs, err := f.safePath(ref.Key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", ref.Key, err)
	}
	return nil
}

// List returns every stored image, sorted by key. Temp files are skipped.
func (f *FS) List() ([]models.ImageRef, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []models.ImageRef
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		out = append(out, models.ImageRef{Key: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
