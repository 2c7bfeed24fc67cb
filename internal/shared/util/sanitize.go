package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

const maxFileNameLen = 180

// ErrInvalidFileName is returned for names with no usable base component.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName keeps the base name of an uploaded file and replaces
// control characters. Directory components are dropped, so "a/../b.pdf"
// becomes "b.pdf" while "deed..v2.pdf" is kept as is.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	s = path.Base(s)
	if s == "." || s == ".." || s == "/" {
		return "", ErrInvalidFileName
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, s)
	if len(s) > maxFileNameLen {
		ext := path.Ext(s)
		if len(ext) > 16 {
			ext = ""
		}
		s = s[:maxFileNameLen-len(ext)] + ext
	}
	if strings.TrimSpace(s) == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
