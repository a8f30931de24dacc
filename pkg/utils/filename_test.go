package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name, in, mime, want string
	}{
		{"plain", "photo.png", "image/png", "photo.png"},
		{"unix traversal", "../../etc/passwd", "text/plain", "passwd"},
		{"windows path", `C:\Users\me\report.pdf`, "application/pdf", "report.pdf"},
		{"control chars", "a\x00b\nc.txt", "text/plain", "abc.txt"},
		{"hidden dotfile", ".bashrc", "text/plain", "bashrc"},
		{"empty", "", "image/jpeg", "file.jpg"},
		{"only dots", "..", "application/octet-stream", "file.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in, tt.mime))
		})
	}
}

func TestSanitizeFileName_Length(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("é", 300), "text/plain")

	assert.LessOrEqual(t, len(got), maxFileNameBytes)
	assert.True(t, utf8.ValidString(got))
}

func TestReplaceExtension(t *testing.T) {
	assert.Equal(t, "photo.jpg", ReplaceExtension("photo.png", ".jpg"))
	assert.Equal(t, "noext.jpg", ReplaceExtension("noext", ".jpg"))
}

func TestGetExtensionFromMimeType(t *testing.T) {
	assert.Equal(t, ".jpg", GetExtensionFromMimeType("image/jpeg"))
	assert.Equal(t, ".png", GetExtensionFromMimeType("image/png"))
	assert.Equal(t, ".txt", GetExtensionFromMimeType("text/plain; charset=utf-8"))
	assert.Equal(t, ".bin", GetExtensionFromMimeType("application/x-unknown-thing"))
}
