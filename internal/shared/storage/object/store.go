// Package object defines blob storage for the compressed copies of uploaded CVs.
package object

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const sniffLen = 512

const maxNameRunes = 120

var (
	// ErrNotFound is returned by Open and Delete when the key does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidName is returned for names that are empty or only dots.
	ErrInvalidName = errors.New("invalid file name")
)

// ObjectStore saves and retrieves binary objects.
type ObjectStore interface {
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// NewKey builds a storage key of the form <user hash>/<uuid>_<clean name>.
func NewKey(userID, fileName string) (string, error) {
	clean, err := CleanName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(UserPrefix(userID), uuid.NewString()+"_"+clean), nil
}

// UserPrefix hashes a caller id so keys never expose it.
func UserPrefix(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:16])
}

// CleanName flattens path separators, drops control characters and caps the
// name length while keeping its extensions.
func CleanName(name string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	if s == "" || s == "." || s == ".." {
		return "", ErrInvalidName
	}
	if utf8.RuneCountInString(s) > maxNameRunes {
		ext := ""
		if i := strings.Index(s, "."); i > 0 && utf8.RuneCountInString(s[i:]) < maxNameRunes/2 {
			ext = s[i:]
		}
		keep := maxNameRunes - utf8.RuneCountInString(ext)
		s = string([]rune(s)[:keep]) + ext
	}
	return s, nil
}

// Sniff detects the content type of r from its first bytes and returns a
// reader that still yields the whole stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}
