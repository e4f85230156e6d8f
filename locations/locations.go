// Package locations persists user-submitted map positions in a flat
// JSON file. The dataset is tiny and single-node; each mutation rewrites
// the whole file under a mutex.
package locations

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Entry is one saved position.
type Entry struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}

// Store reads and writes the locations file.
type Store struct {
	path string

	mu sync.Mutex
}

// NewStore creates a Store backed by the given file path. The file is
// created on first save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save stores an entry, replacing any existing entry with the same id
// and stamping the current time.
func (s *Store) Save(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	kept := entries[:0]
	for _, cur := range entries {
		if cur.ID != e.ID {
			kept = append(kept, cur)
		}
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	kept = append(kept, e)

	return s.write(kept)
}

// Remove deletes the entry with the given id. Removing an unknown id is
// not an error.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	kept := entries[:0]
	for _, cur := range entries {
		if cur.ID != id {
			kept = append(kept, cur)
		}
	}
	return s.write(kept)
}

// List returns all saved entries. A missing or unreadable file yields an
// empty list.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// load reads the file, tolerating absence and corruption.
func (s *Store) load() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return []Entry{}
	}
	return entries
}

func (s *Store) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal locations: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
