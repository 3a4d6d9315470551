package media

import (
	"crypto/md5"
	"fmt"
	"slices"
	"strings"
)

// FileTypeFilter narrows a scan by mime type
type FileTypeFilter string

const (
	FileTypeAll       FileTypeFilter = "all"
	FileTypeImages    FileTypeFilter = "images"
	FileTypeVideos    FileTypeFilter = "videos"
	FileTypeAudio     FileTypeFilter = "audio"
	FileTypePDFs      FileTypeFilter = "pdfs"
	FileTypeDocuments FileTypeFilter = "documents"
)

// SafetyFilter narrows a scan by verdict
type SafetyFilter string

const (
	SafetyAll     SafetyFilter = "all"
	SafetySafe    SafetyFilter = "safe"
	SafetyWarning SafetyFilter = "warning"
)

// DocumentMimeTypes is the fixed set matched by the documents filter
var DocumentMimeTypes = []string{
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Valid reports whether f is a known filter value
func (f FileTypeFilter) Valid() bool {
	switch f {
	case FileTypeAll, FileTypeImages, FileTypeVideos, FileTypeAudio, FileTypePDFs, FileTypeDocuments:
		return true
	}
	return false
}

// Matches applies the filter to a mime type
func (f FileTypeFilter) Matches(mimeType string) bool {
	switch f {
	case FileTypeAll:
		return true
	case FileTypeImages:
		return strings.HasPrefix(mimeType, "image/")
	case FileTypeVideos:
		return strings.HasPrefix(mimeType, "video/")
	case FileTypeAudio:
		return strings.HasPrefix(mimeType, "audio/")
	case FileTypePDFs:
		return mimeType == "application/pdf"
	case FileTypeDocuments:
		return slices.Contains(DocumentMimeTypes, mimeType)
	}
	return false
}

// Valid reports whether f is a known filter value
func (f SafetyFilter) Valid() bool {
	switch f {
	case SafetyAll, SafetySafe, SafetyWarning:
		return true
	}
	return false
}

// Matches applies the filter to a verdict
func (f SafetyFilter) Matches(v Verdict) bool {
	switch f {
	case SafetyAll:
		return true
	case SafetySafe:
		return v.SafeToDelete()
	case SafetyWarning:
		return !v.SafeToDelete()
	}
	return false
}

// Filter is the scan's filter configuration. Both predicates combine with AND.
type Filter struct {
	FileType FileTypeFilter `json:"fileType"`
	Safety   SafetyFilter   `json:"safety"`
}

// DefaultFilter selects everything
func DefaultFilter() Filter {
	return Filter{FileType: FileTypeAll, Safety: SafetyAll}
}

// Normalize fills empty values with "all"
func (f Filter) Normalize() Filter {
	if f.FileType == "" {
		f.FileType = FileTypeAll
	}
	if f.Safety == "" {
		f.Safety = SafetyAll
	}
	return f
}

// Matches applies both predicates
func (f Filter) Matches(item *Item, v Verdict) bool {
	return f.FileType.Matches(item.MimeType) && f.Safety.Matches(v)
}

// Fingerprint is the stable cache identity of the filter configuration
func (f Filter) Fingerprint() string {
	sum := md5.Sum([]byte(string(f.FileType) + "_" + string(f.Safety)))
	return fmt.Sprintf("%x", sum)
}
