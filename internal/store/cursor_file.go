package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileState is the on-disk layout of the file cursor store
type fileState struct {
	LastLT uint64 `json:"last_lt"`
}

type fileCursorStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCursorStore creates a cursor store backed by a single JSON file.
// The contract key is ignored: one file tracks one contract.
func NewFileCursorStore(path string) CursorStore {
	return &fileCursorStore{path: path}
}

// GetLastLT retrieves the logical time of the newest processed trace
func (s *fileCursorStore) GetLastLT(ctx context.Context, contract string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil // Return 0 if no cursor exists
		}
		return 0, fmt.Errorf("failed to read state file: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, fmt.Errorf("failed to parse state file: %w", err)
	}

	return state.LastLT, nil
}

// SetLastLT stores the logical time of the newest processed trace. The file
// is written to a temp path and renamed so a crash never leaves a torn state.
func (s *fileCursorStore) SetLastLT(ctx context.Context, contract string, lt uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.Marshal(fileState{LastLT: lt})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
