// Package memory provides an in-memory progress store for tests and demos.
package memory

import (
	"context"
	"sync"

	"tripquest/core"
)

// Store keeps the record and satellite sets in process memory.
type Store struct {
	mu   sync.Mutex
	rec  *core.ProgressRecord
	sets map[string][]string
}

func New() *Store {
	return &Store{sets: map[string][]string{}}
}

func (s *Store) Load(_ context.Context) (core.ProgressRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return core.ProgressRecord{}, false, nil
	}
	return s.rec.Clone(), true, nil
}

func (s *Store) Save(_ context.Context, rec core.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := rec.Clone()
	s.rec = &cp
	return nil
}

func (s *Store) LoadSet(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.sets[key]...), nil
}

func (s *Store) SaveSet(_ context.Context, key string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[key] = append([]string{}, ids...)
	return nil
}

// Structural assertions kept anonymous so the package stays importable from
// engine tests without a cycle.
var _ interface {
	Load(context.Context) (core.ProgressRecord, bool, error)
	Save(context.Context, core.ProgressRecord) error
	LoadSet(context.Context, string) ([]string, error)
	SaveSet(context.Context, string, []string) error
} = (*Store)(nil)
