package util

import (
	"errors"
	"strings"
)

const maxFileNameLen = 255

var suspiciousExtensions = []string{".exe", ".bat", ".cmd", ".sh", ".js", ".msi", ".scr"}

// SanitizeFileName removes path separators and rejects traversal patterns and overlong names.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if len(s) > maxFileNameLen {
		return "", errors.New("file name too long")
	}
	return s, nil
}

// HasSuspiciousExtension reports whether the name carries an executable-like
// double extension (e.g. "invoice.pdf.exe"). Callers treat this as a warning,
// not a rejection.
func HasSuspiciousExtension(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, ext := range suspiciousExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
