// Package media renders previews of stored media files
package media

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	domain "github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
)

var (
	// ErrNotImage is returned for items without a raster image mime type
	ErrNotImage = errors.New("media item is not an image")
	// ErrOutsideRoot is returned when an item path escapes the media root
	ErrOutsideRoot = errors.New("media path outside media root")
)

// Thumbnailer renders square WebP previews of image items
type Thumbnailer struct {
	basePath string
	size     int
	quality  float32
}

// NewThumbnailer creates a thumbnailer reading files under basePath
func NewThumbnailer(basePath string, size int) *Thumbnailer {
	if size <= 0 {
		size = 80
	}
	return &Thumbnailer{basePath: basePath, size: size, quality: 85}
}

// Render decodes the item's file and returns a size×size WebP crop
func (t *Thumbnailer) Render(item *domain.Item) ([]byte, error) {
	if !item.IsImage() || item.MimeType == "image/svg+xml" {
		return nil, ErrNotImage
	}
	path, err := t.resolve(item.FilePath)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	thumb := imaging.Fill(img, t.size, t.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	// imaging has no WebP encoder
	if err := webp.Encode(&buf, thumb, &webp.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Thumbnailer) resolve(file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("media item has no stored file")
	}
	root := filepath.Clean(t.basePath)
	full := filepath.Join(root, filepath.FromSlash(file))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}
