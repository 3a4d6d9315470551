package media

import (
	"fmt"
	"slices"
	"strings"
)

// FormatFileSize renders a byte count as bytes, KB, MB or GB
func FormatFileSize(size int64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(size)/(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

type typeLabel struct {
	prefix string
	label  string
}

// exact types first; prefixes are checked in order after
var fileTypeLabels = []typeLabel{
	{"image", "Image"},
	{"video", "Video"},
	{"audio", "Audio"},
	{"application/pdf", "PDF"},
	{"application/msword", "Word Document"},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "Word Document"},
	{"application/vnd.ms-excel", "Excel Spreadsheet"},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "Excel Spreadsheet"},
	{"application/vnd.ms-powerpoint", "PowerPoint Presentation"},
	{"application/vnd.openxmlformats-officedocument.presentationml.presentation", "PowerPoint Presentation"},
	{"text/plain", "Text File"},
	{"application/zip", "ZIP Archive"},
}

// FileTypeLabel returns a human label for a mime type
func FileTypeLabel(mimeType string) string {
	for _, tl := range fileTypeLabels {
		if tl.prefix == mimeType {
			return tl.label
		}
	}
	for _, tl := range fileTypeLabels {
		if strings.HasPrefix(mimeType, tl.prefix) {
			return tl.label
		}
	}
	return "Unknown"
}

var supportedExtensions = []struct {
	category   string
	extensions []string
}{
	{"images", []string{"jpg", "jpeg", "png", "gif", "bmp", "webp", "ico", "svg"}},
	{"videos", []string{"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv", "3gp"}},
	{"audio", []string{"mp3", "wav", "ogg", "wma", "aac", "flac", "m4a"}},
	{"documents", []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf"}},
	{"archives", []string{"zip", "rar", "7z", "tar", "gz"}},
}

// FileCategory maps a file extension to its supported category, or "other"
func FileCategory(extension string) string {
	ext := strings.ToLower(extension)
	for _, c := range supportedExtensions {
		if slices.Contains(c.extensions, ext) {
			return c.category
		}
	}
	return "other"
}
