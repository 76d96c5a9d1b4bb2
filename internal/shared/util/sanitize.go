package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 100

// ErrInvalidFileName is returned for empty names and traversal attempts.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes an uploaded screenshot name safe to use as the last
// segment of an object key. Separators, whitespace and control characters
// become underscores and the result is capped at 100 bytes.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	if s == "" {
		return "", ErrInvalidFileName
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsSpace(r) || unicode.IsControl(r):
			return '_'
		}
		return r
	}, s)
	if len(s) > maxFileNameLen {
		s = strings.ToValidUTF8(s[len(s)-maxFileNameLen:], "")
	}
	return s, nil
}
