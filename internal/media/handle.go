// Package media turns uploaded bytes into image handles for the wizard.
package media

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"ticketwizard/internal/domain"
)

// MaxImageBytes is the largest image accepted for the main image or the gallery.
const MaxImageBytes = 5 << 20

// NewHandle checks that data is an image no larger than MaxImageBytes and
// wraps it in a handle with a fresh ID and a blake2b-256 content hash.
func NewHandle(name string, data []byte) (*domain.FileHandle, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file: %w", domain.ErrInvalidInput)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d: %w", name, len(data), MaxImageBytes, domain.ErrFileTooLarge)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%s has type %s: %w", name, contentType, domain.ErrUnsupportedMedia)
	}
	sum := blake2b.Sum256(data)
	return &domain.FileHandle{
		ID:          uuid.NewString(),
		Name:        cleanName(name),
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        hex.EncodeToString(sum[:]),
		Data:        data,
	}, nil
}

// cleanName keeps the base name of an uploaded file.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
