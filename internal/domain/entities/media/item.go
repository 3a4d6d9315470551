// Package media defines the domain entities of the reachability engine
package media

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Item is a media item under evaluation. It is immutable for the length of a scan pass.
type Item struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	LocationRef string    `json:"url"`
	FilePath    string    `json:"-"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"fileSize"`
	CreatedAt   time.Time `json:"uploadDate"`
	ParentID    int64     `json:"parentId,omitempty"`
}

// IDString returns the id as the string stored in reference values
func (i *Item) IDString() string {
	return strconv.FormatInt(i.ID, 10)
}

// Extension returns the lower-cased file extension without the dot
func (i *Item) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(i.Filename)), ".")
}

// IsImage reports whether the item carries an image mime type
func (i *Item) IsImage() bool {
	return strings.HasPrefix(i.MimeType, "image/")
}
