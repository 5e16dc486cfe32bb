// Package media stores user-uploaded recipe images on disk.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageBytes bounds a decoded upload.
const MaxImageBytes = 5 << 20

// ErrInvalidImage is returned for payloads that are not base64 images.
var ErrInvalidImage = errors.New("image must be a base64 encoded picture")

// Store writes images below Root and hands back paths relative to it.
type Store struct {
	Root string
}

func NewStore(root string) *Store {
	return &Store{Root: root}
}

// SaveBase64 decodes a "data:image/<type>;base64,<payload>" string (the
// data URI prefix is optional), checks that the content really is an image
// and stores it under recipes/. It returns the relative path.
func (s *Store) SaveBase64(encoded string) (string, error) {
	payload := encoded
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ";base64,")
		if i < 0 {
			return "", ErrInvalidImage
		}
		payload = payload[i+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil || len(data) == 0 {
		return "", ErrInvalidImage
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: got %s", ErrInvalidImage, mtype.String())
	}

	rel := filepath.ToSlash(filepath.Join("recipes", uuid.NewString()+mtype.Extension()))
	abs := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// Remove deletes a file previously returned by SaveBase64. Missing files
// are not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	abs := filepath.Join(s.Root, filepath.FromSlash(rel))
	if !strings.HasPrefix(abs, filepath.Clean(s.Root)+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove %q outside media root", rel)
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
