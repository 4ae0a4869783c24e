package storage

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// Entry is the latest parse of one reduction file. When parsing failed,
// Err is set and File and Report are empty.
type Entry struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	File     *pypeit.File  `json:"file,omitempty"`
	Report   pypeit.Report `json:"report"`
	Err      string        `json:"error,omitempty"`
	LoadedAt time.Time     `json:"loaded_at"`
}

type FileStore struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

func New() *FileStore {
	return &FileStore{
		entries: make(map[string]*Entry),
	}
}

// Load parses and validates path and stores the result under name,
// including failures. Names must be unique; see discover.Expand.
func (s *FileStore) Load(name, path string) *Entry {
	entry := &Entry{Name: name, Path: path, LoadedAt: time.Now()}
	f, err := pypeit.ParseFile(path)
	if err != nil {
		entry.Err = err.Error()
	} else {
		entry.File = f
		entry.Report = pypeit.Validate(f)
	}
	s.Set(name, entry)
	return entry
}

// Reload reparses the entry stored for path. An entry whose file no longer
// exists is deleted. ok is false when path is not stored or was deleted.
func (s *FileStore) Reload(path string) (entry *Entry, ok bool) {
	name, found := s.nameOf(path)
	if !found {
		return nil, false
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		s.Delete(name)
		return nil, false
	}
	return s.Load(name, path), true
}

func (s *FileStore) nameOf(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, e := range s.entries {
		if e.Path == path {
			return name, true
		}
	}
	return "", false
}

func (s *FileStore) Get(name string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, exists := s.entries[name]
	return entry, exists
}

func (s *FileStore) Set(name string, entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = entry
}

func (s *FileStore) GetAll() map[string]*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Entry, len(s.entries))
	for k, v := range s.entries {
		result[k] = v
	}
	return result
}

func (s *FileStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}
