// Package jsonfile persists the progress record as a single JSON document on
// disk, the server-side analogue of the browser's local storage. Satellite
// sets live in sibling files so each logical key survives independently.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tripquest/core"
)

// Store writes the record to path and satellite sets to
// "<path minus .json>.<key>.json".
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted record. A missing or unparseable file is reported
// as absent, never as a fatal error.
func (s *Store) Load(_ context.Context) (core.ProgressRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.ProgressRecord{}, false, nil
		}
		return core.ProgressRecord{}, false, err
	}

	rec := core.DefaultRecord()
	if err := json.Unmarshal(b, &rec); err != nil {
		// Corrupt document: treat as absent so the engine starts fresh.
		return core.ProgressRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *Store) Save(_ context.Context, rec core.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.path, b)
}

func (s *Store) LoadSet(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.setPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return []string{}, nil
	}
	return ids, nil
}

func (s *Store) SaveSet(_ context.Context, key string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.setPath(key), b)
}

func (s *Store) setPath(key string) string {
	base := strings.TrimSuffix(s.path, ".json")
	return base + "." + key + ".json"
}

func writeAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
