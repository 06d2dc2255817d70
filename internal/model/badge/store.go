package badge

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Store exposes badge lookups for views and handlers.
type Store interface {
	List() []Badge
	Lookup(language string) Badge
	Default() string
}

// MemoryStore implements Store with an in-memory table.
type MemoryStore struct {
	items    []Badge
	index    map[string]int
	fallback string
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied badges.
func NewMemoryStore(items []Badge) *MemoryStore {
	s := &MemoryStore{index: make(map[string]int), fallback: DefaultClasses}
	for _, item := range items {
		s.put(item)
	}
	return s
}

func (s *MemoryStore) put(item Badge) {
	if i, ok := s.index[item.Language]; ok {
		s.items[i] = item
		return
	}
	s.index[item.Language] = len(s.items)
	s.items = append(s.items, item)
}

// List returns the configured badges in table order.
func (s *MemoryStore) List() []Badge {
	return append([]Badge(nil), s.items...)
}

// Lookup returns the badge for language, or the default colouring.
func (s *MemoryStore) Lookup(language string) Badge {
	if i, ok := s.index[language]; ok {
		return s.items[i]
	}
	return Badge{Language: language, Classes: s.fallback}
}

// Default returns the classes used for unknown languages.
func (s *MemoryStore) Default() string {
	return s.fallback
}

type paletteFile struct {
	Default   string            `yaml:"default"`
	Languages map[string]string `yaml:"languages"`
}

// LoadFile merges a YAML palette into the store. Entries in the file
// override the seed; the optional default replaces the fallback colouring.
//
//	default: bg-gray-100 text-gray-800 border-gray-200
//	languages:
//	  Go: bg-cyan-100 text-cyan-800 border-cyan-200
func (s *MemoryStore) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read badge palette: %w", err)
	}

	var file paletteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse badge palette %s: %w", path, err)
	}

	if file.Default != "" {
		s.fallback = file.Default
	}
	for _, language := range slices.Sorted(maps.Keys(file.Languages)) {
		classes := file.Languages[language]
		if language == "" || classes == "" {
			return fmt.Errorf("parse badge palette %s: empty entry for %q", path, language)
		}
		s.put(Badge{Language: language, Classes: classes})
	}
	return nil
}
