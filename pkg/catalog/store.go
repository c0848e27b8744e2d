package catalog

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Store holds the catalog loaded from a file and swaps in a new one on
// Reload. Readers always see a complete catalog.
type Store struct {
	path    string
	current atomic.Pointer[Catalog]
}

// Open loads path into a new Store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the catalog file. On failure the previous catalog stays
// in place.
func (s *Store) Reload() error {
	c, err := Load(s.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", s.path, err)
	}
	prev := s.current.Swap(c)
	if prev != nil {
		slog.Info("Catalog reloaded", "path", s.path, "plants", c.Len(), "previous", prev.Len())
	}
	return nil
}

// Path returns the catalog file path.
func (s *Store) Path() string { return s.path }

// Current returns the active catalog.
func (s *Store) Current() *Catalog { return s.current.Load() }

func (s *Store) Find(id string) (Plant, bool) { return s.Current().Find(id) }
func (s *Store) IDs() []string                { return s.Current().IDs() }
func (s *Store) Len() int                     { return s.Current().Len() }
