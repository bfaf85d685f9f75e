package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps each record as a JSON file in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store in baseDir.
// An empty baseDir means ~/.config/flowtower/flows.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "flowtower", "flows")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) SaveFlow(_ context.Context, r *Record) (string, error) {
	prepare(r)
	if err := ValidateID(r.ID); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(s.recordPath(r.ID), data, 0o600); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	return r.ID, nil
}

func (s *FileStore) GetFlow(_ context.Context, id string) (*Record, error) {
	if ValidateID(id) != nil {
		return nil, notFound(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.recordPath(id), id)
}

func (s *FileStore) read(path, id string) (*Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", id, err)
	}
	return &r, nil
}

func (s *FileStore) ListFlows(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		r, err := s.read(filepath.Join(s.baseDir, entry.Name()), entry.Name())
		if err != nil {
			continue
		}
		out = append(out, r.Summary())
	}
	return newestFirst(out, limitOrDefault(limit)), nil
}

func (s *FileStore) DeleteFlow(_ context.Context, id string) error {
	if ValidateID(id) != nil {
		return notFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.recordPath(id))
	if os.IsNotExist(err) {
		return notFound(id)
	}
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the record files.
func (s *FileStore) Path() string { return s.baseDir }

var _ Store = (*FileStore)(nil)
