package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/transcribot/storage"
)

// Hash returns the lowercase hex SHA-256 of the file at path.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("media: open %s: %w", path, err)
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("media: hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Hasher fingerprints objects in scratch storage.
type Hasher struct {
	storage storage.Storage
}

// NewHasher creates a Hasher reading from store.
func NewHasher(store storage.Storage) *Hasher {
	return &Hasher{storage: store}
}

// Hash returns the content fingerprint of the object at path.
func (h *Hasher) Hash(ctx context.Context, path string) (string, error) {
	rc, err := h.storage.Download(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return hashReader(rc)
}
