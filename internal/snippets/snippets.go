// Package snippets keeps named, reusable SQL statements. They complement
// query history: history records what ran, snippets record what is worth
// running again by name.
package snippets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Snippet is one saved statement. Names are unique case-insensitively.
type Snippet struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Query      string    `yaml:"query"`
	Connection string    `yaml:"connection,omitempty"`
	Tags       []string  `yaml:"tags,omitempty"`
	CreatedAt  time.Time `yaml:"created_at"`
	LastUsed   time.Time `yaml:"last_used,omitempty"`
	UseCount   int       `yaml:"use_count,omitempty"`
}

// Store is the yaml-backed snippet collection.
type Store struct {
	mu       sync.Mutex
	path     string
	snippets []Snippet
}

// NewStore loads dir/snippets.yaml; a missing file yields an empty store.
func NewStore(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, "snippets.yaml")}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read snippets file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s.snippets); err != nil {
		return nil, fmt.Errorf("failed to parse snippets file: %w", err)
	}
	return s, nil
}

func (s *Store) save() error {
	raw, err := yaml.Marshal(s.snippets)
	if err != nil {
		return fmt.Errorf("failed to encode snippets: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write snippets file: %w", err)
	}
	return nil
}

// Add saves a new snippet. The name must not collide with an existing one,
// compared case-insensitively.
func (s *Store) Add(name, query, connection string, tags []string) (Snippet, error) {
	name = strings.TrimSpace(name)
	query = strings.TrimSpace(query)
	if name == "" {
		return Snippet{}, fmt.Errorf("snippet name cannot be empty")
	}
	if query == "" {
		return Snippet{}, fmt.Errorf("snippet query cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snip := range s.snippets {
		if strings.EqualFold(snip.Name, name) {
			return Snippet{}, fmt.Errorf("a snippet named %q already exists", snip.Name)
		}
	}

	snippet := Snippet{
		ID:         uuid.NewString(),
		Name:       name,
		Query:      query,
		Connection: connection,
		Tags:       tags,
		CreatedAt:  time.Now(),
	}
	s.snippets = append(s.snippets, snippet)

	if err := s.save(); err != nil {
		return Snippet{}, err
	}
	return snippet, nil
}

// Find returns the snippet with the given name, case-insensitively.
func (s *Store) Find(name string) (Snippet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snip := range s.snippets {
		if strings.EqualFold(snip.Name, name) {
			return snip, true
		}
	}
	return Snippet{}, false
}

// Remove deletes the named snippet.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, snip := range s.snippets {
		if strings.EqualFold(snip.Name, name) {
			s.snippets = append(s.snippets[:i], s.snippets[i+1:]...)
			return s.save()
		}
	}
	return fmt.Errorf("no snippet named %q", name)
}

// List returns every snippet sorted by name.
func (s *Store) List() []Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Snippet, len(s.snippets))
	copy(out, s.snippets)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Search returns snippets whose name, query or tags contain fragment.
func (s *Store) Search(fragment string) []Snippet {
	if fragment == "" {
		return s.List()
	}
	lower := strings.ToLower(fragment)

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []Snippet
	for _, snip := range s.snippets {
		if matchesSnippet(snip, lower) {
			results = append(results, snip)
		}
	}
	return results
}

func matchesSnippet(snip Snippet, lower string) bool {
	if strings.Contains(strings.ToLower(snip.Name), lower) ||
		strings.Contains(strings.ToLower(snip.Query), lower) {
		return true
	}
	for _, tag := range snip.Tags {
		if strings.Contains(strings.ToLower(tag), lower) {
			return true
		}
	}
	return false
}

// MarkUsed bumps the snippet's usage statistics.
func (s *Store) MarkUsed(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snippets {
		if strings.EqualFold(s.snippets[i].Name, name) {
			s.snippets[i].UseCount++
			s.snippets[i].LastUsed = time.Now()
			return s.save()
		}
	}
	return fmt.Errorf("no snippet named %q", name)
}
