// Package storage holds image bytes referenced by notes.
package storage

import (
	"errors"

	"github.com/starford/catatan/internal/models"
)

// ErrNotImage is returned when uploaded bytes are not a supported image.
var ErrNotImage = errors.New("file must be an image")

// ImageStore is the interface for image blob operations.
type ImageStore interface {
	// Put stores data and returns a fresh reference. name is only used to
	// help detect the image type.
	Put(data []byte, name string) (models.ImageRef, error)
	// Bytes lazily loads the image behind ref.
	Bytes(ref models.ImageRef) ([]byte, error)
	// Path returns the absolute file path of ref for direct serving.
	Path(ref models.ImageRef) (string, error)
	// Delete removes the image behind ref.
	Delete(ref models.ImageRef) error
	// List returns every stored image.
	List() ([]models.ImageRef, error)
	// Root returns the directory holding the images.
	Root() string
}
