package utils

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionOverrides covers types mimetype either lacks or names differently than receivers expect.
var extensionOverrides = map[string]string{
	"application/octet-stream": ".bin",
	"image/jpeg":               ".jpg",
	"image/tiff":               ".tif",
	"video/quicktime":          ".mov",
	"text/plain":               ".txt",
}

// GetExtensionFromMimeType returns a common file extension for a given MIME type.
// If no specific extension is found, it defaults to ".bin".
func GetExtensionFromMimeType(mimeType string) string {
	cleaned := strings.TrimSpace(strings.ToLower(strings.Split(mimeType, ";")[0]))
	if ext, ok := extensionOverrides[cleaned]; ok {
		return ext
	}

	if m := mimetype.Lookup(cleaned); m != nil && m.Extension() != "" {
		return m.Extension()
	}

	return ".bin"
}
