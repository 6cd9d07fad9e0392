// Package settings holds the persisted game settings: which resource pack
// is active and which packs are available.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	// FileName is the settings file below the home directory.
	FileName = "settings.json"
	// DefaultPack is the active pack used when no settings exist yet.
	DefaultPack = "default_pack.zip"
	// PartSuffix marks downloads that have not completed.
	PartSuffix = ".part"
)

// Store manages settings persistence.
type Store struct {
	ActiveResourcepack     string   `json:"activeResourcepack"`
	AvailableResourcepacks []string `json:"-"`

	mu       sync.RWMutex
	filePath string
	packDir  string
}

// New returns an unsaved store with the default active pack.
func New(filePath, packDir string) *Store {
	return &Store{
		ActiveResourcepack: DefaultPack,
		filePath:           filePath,
		packDir:            packDir,
	}
}

// Load reads the store from filePath and lists packDir. A missing file
// yields the defaults.
func Load(filePath, packDir string) (*Store, error) {
	store := New(filePath, packDir)

	data, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, store); err != nil {
			return nil, fmt.Errorf("failed to parse settings %s: %w", filePath, err)
		}
		if store.ActiveResourcepack == "" {
			store.ActiveResourcepack = DefaultPack
		}
	}

	if err := store.Refresh(); err != nil {
		return nil, err
	}
	return store, nil
}

// Save persists the store to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}

// ActivePack returns the name of the active pack.
func (s *Store) ActivePack() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ActiveResourcepack
}

// SetActivePack updates the in-memory active pack. Call Save to persist it.
func (s *Store) SetActivePack(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ActiveResourcepack = name
}

// IsPackActive compares by final path component.
func (s *Store) IsPackActive(pack string) bool {
	return s.ActivePack() == filepath.Base(pack)
}

// AvailablePacks returns the pack names found by the last Refresh.
func (s *Store) AvailablePacks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.AvailableResourcepacks...)
}

// Refresh re-lists the pack directory, creating it when missing. Hidden
// entries and unfinished downloads are left out.
func (s *Store) Refresh() error {
	if err := os.MkdirAll(s.packDir, 0755); err != nil {
		return fmt.Errorf("failed to create pack directory: %w", err)
	}
	entries, err := os.ReadDir(s.packDir)
	if err != nil {
		return fmt.Errorf("failed to list packs: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, PartSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	s.mu.Lock()
	s.AvailableResourcepacks = names
	s.mu.Unlock()
	return nil
}
