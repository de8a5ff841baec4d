package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFileNameBytes = 200

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName keeps the base name of an uploaded file, drops control
// characters and caps the length while keeping the extension.
func SanitizeFileName(name string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	s = path.Base(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." || s == "/" {
		return "", errInvalidFileName
	}
	if len(s) > maxFileNameBytes {
		ext := path.Ext(s)
		if len(ext) > 16 {
			ext = ""
		}
		s = truncateUTF8(strings.TrimSuffix(s, ext), maxFileNameBytes-len(ext)) + ext
	}
	return s, nil
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
