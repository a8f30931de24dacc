package utils

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFileNameBytes = 255

// SanitizeFileName reduces name to a display-safe base name. The result is
// never meant for building filesystem or storage paths.
func SanitizeFileName(name, mimeType string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		if r == utf8.RuneError || unicode.IsControl(r) || r == '/' {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.TrimSpace(b.String())
	cleaned = strings.TrimLeft(cleaned, ".")

	if cleaned == "" {
		return "file" + GetExtensionFromMimeType(mimeType)
	}

	return truncateUTF8(cleaned, maxFileNameBytes)
}

// ReplaceExtension swaps the extension of a sanitized name.
func ReplaceExtension(name, ext string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "file"
	}

	return truncateUTF8(base, maxFileNameBytes-len(ext)) + ext
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
