// Package file stores each draft as a JSON file in a directory.
package file

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ticketwizard/internal/domain"
)

type draftRepository struct {
	dir string
}

// NewDraftRepository returns a domain.DraftRepository writing to dir, which is
// created if missing.
func NewDraftRepository(dir string) (domain.DraftRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	return &draftRepository{dir: dir}, nil
}

// path hex-encodes the key so user IDs never escape the directory.
func (r *draftRepository) path(key string) string {
	return filepath.Join(r.dir, hex.EncodeToString([]byte(key))+".json")
}

func (r *draftRepository) Get(_ context.Context, key string) ([]byte, error) {
	payload, err := os.ReadFile(r.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

// Put writes to a temp file and renames it over the slot so readers never see
// a partial draft.
func (r *draftRepository) Put(_ context.Context, key string, payload []byte) error {
	tmp, err := os.CreateTemp(r.dir, "draft-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path(key))
}

func (r *draftRepository) Delete(_ context.Context, key string) error {
	err := os.Remove(r.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
