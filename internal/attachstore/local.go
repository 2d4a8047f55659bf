package attachstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore stores attachments as files on the local filesystem.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a new LocalStore at the given base path.
// It creates the directory if it does not exist.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("attachstore: create base directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Put writes attachment data to a file using an atomic write pattern.
func (s *LocalStore) Put(_ context.Context, attachmentID string, data []byte) error {
	finalPath := filepath.Join(s.basePath, attachmentID)

	// Write to a temp file in the same directory, then rename for atomicity.
	tmp, err := os.CreateTemp(s.basePath, ".tmp-"+attachmentID+"-*")
	if err != nil {
		return fmt.Errorf("attachstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("attachstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("attachstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("attachstore: rename temp file: %w", err)
	}
	return nil
}

// Get reads attachment data from a file.
// Returns ErrNotFound if the attachment does not exist.
func (s *LocalStore) Get(_ context.Context, attachmentID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, attachmentID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("attachstore: read file: %w", err)
	}
	return data, nil
}

// Delete removes an attachment file.
// Returns nil if the attachment does not exist (idempotent).
func (s *LocalStore) Delete(_ context.Context, attachmentID string) error {
	err := os.Remove(filepath.Join(s.basePath, attachmentID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("attachstore: remove file: %w", err)
	}
	return nil
}
