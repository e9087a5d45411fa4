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

// MemoryStore keeps the whole state in memory behind a mutex, optionally
// persisting each committed update to a JSON file. With an empty path it is
// purely in-memory, which is what the test suites use.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
	path  string
}

// NewMemoryStore creates a store without file persistence.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &State{}}
}

// NewFileStore creates a store persisted to the given JSON file. An existing
// file is loaded; a corrupt or missing one starts empty.
func NewFileStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{state: &State{}, path: path}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read state file: %w", err)
		}
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	}

	var loaded State
	if err := json.Unmarshal(content, &loaded); err == nil {
		s.state = &loaded
	}
	return s, nil
}

func (s *MemoryStore) Snapshot(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, mutator func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.Clone()
	if err := mutator(draft); err != nil {
		return err
	}
	s.state = draft
	return s.persist()
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) persist() error {
	if s.path == "" {
		return nil
	}
	content, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(s.path, content, 0o644); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}
