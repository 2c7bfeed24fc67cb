package object

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"registry-backend/internal/shared/util"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key        string
	StoredName string
	Size       int64
	MimeType   string
}

// BlobStore is durable storage for uploaded file bytes.
type BlobStore interface {
	// Save writes r under a fresh, collision-resistant name in the owner's
	// namespace and never overwrites an existing object.
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// StoredName builds "<unix-millis>-<random hex>-<sanitized name>".
func StoredName(now time.Time, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), randomID(), sanitized), nil
}

// Sniff reads the head of r to detect its MIME type and returns a reader
// that replays the consumed bytes.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [3072]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	buf := append([]byte(nil), head[:n]...)
	mime := mimetype.Detect(buf).String()
	return mime, io.MultiReader(bytes.NewReader(buf), r), nil
}

func randomID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
