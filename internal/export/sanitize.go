package export

import (
	"regexp"
	"strings"
)

// nonAlphanumeric matches runs of characters that are not lowercase letters
// or digits.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeName lowercases a file or run name and folds every run of other
// characters into a single hyphen, for safe filenames and
// Content-Disposition headers.
func SanitizeName(name string) string {
	s := strings.ToLower(name)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 100 {
		s = strings.Trim(s[:100], "-")
	}
	if s == "" {
		return "audit"
	}
	return s
}

// FileName builds "{sanitized base}.{ext}" for an export download.
func FileName(base string, format Format) string {
	return SanitizeName(base) + "." + format.Ext()
}
