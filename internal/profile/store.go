// Package profile persists what the CLI needs between invocations: the
// enabled token and each imparter's network and address. Secrets stay in the
// keystore.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/yolodolo42/ledgers/internal/network"
)

const (
	profileFileName = "profile.json"
	filePerms       = 0600 // Owner read/write only
)

// TagState is the saved state of one imparter.
type TagState struct {
	Network network.Details `json:"network"`
	Address string          `json:"address,omitempty"`
}

// Data is the structure of profile.json
type Data struct {
	Version int                 `json:"version"`
	Token   string              `json:"token,omitempty"`
	Tags    map[string]TagState `json:"tags"`
}

// Store manages profile storage
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     *Data
}

// NewStore opens the profile under dataDir, creating the directory if needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &Store{
		filePath: filepath.Join(dataDir, profileFileName),
		data: &Data{
			Version: 1,
			Tags:    make(map[string]TagState),
		},
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return store, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}

	// Tags is never nil, even for a hand-edited file.
	if d.Tags == nil {
		d.Tags = make(map[string]TagState)
	}

	s.data = &d
	return nil
}

// save writes the profile through a temp file and rename.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, filePerms); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Token = token
	return s.save()
}

// Tag returns the saved state for tag and whether there was any.
func (s *Store) Tag(tag string) (TagState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.data.Tags[tag]
	return st, ok
}

// UpdateTag applies fn to the saved state of tag and saves the result.
func (s *Store) UpdateTag(tag string, fn func(*TagState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.data.Tags[tag]
	fn(&st)
	s.data.Tags[tag] = st
	return s.save()
}

// Tags returns the tags with saved state, sorted.
func (s *Store) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]string, 0, len(s.data.Tags))
	for tag := range s.data.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
