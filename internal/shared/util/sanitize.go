package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameRunes caps stored file names; longer names keep their extension.
const MaxFileNameRunes = 180

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and control characters, rejects
// traversal patterns and shortens long names.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") || !utf8.ValidString(name) {
		return "", errInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errInvalidFileName
	}
	if utf8.RuneCountInString(s) > MaxFileNameRunes {
		ext := path.Ext(s)
		if utf8.RuneCountInString(ext) > 16 {
			ext = ""
		}
		runes := []rune(strings.TrimSuffix(s, ext))
		s = string(runes[:MaxFileNameRunes-utf8.RuneCountInString(ext)]) + ext
	}
	return s, nil
}
