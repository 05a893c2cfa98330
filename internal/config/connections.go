package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/secret"
	"github.com/quernlabs/quern/internal/sshtunnel"
)

// Tags that mark a connection as needing destructive-statement confirmation.
const (
	TagProd       = "prod"
	TagProduction = "production"
	TagSensitive  = "sensitive"
)

// SavedConnection is one entry in the connection store. Passwords are kept
// sealed; they are only decrypted while resolving to an OpenSpec.
type SavedConnection struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`

	// SQLite
	Path string `yaml:"path,omitempty"`

	// Postgres
	Host     string                    `yaml:"host,omitempty"`
	Port     int                       `yaml:"port,omitempty"`
	Username string                    `yaml:"username,omitempty"`
	Database string                    `yaml:"database,omitempty"`
	Password *secret.EncryptedPassword `yaml:"password,omitempty"`

	Tags []string     `yaml:"tags,omitempty"`
	SSH  *SSHSettings `yaml:"ssh,omitempty"`
}

// SSHSettings configures the optional tunnel hop for a Postgres connection.
// An empty KeyPath means agent authentication.
type SSHSettings struct {
	Host       string                    `yaml:"host"`
	Port       int                       `yaml:"port"`
	Username   string                    `yaml:"username"`
	KeyPath    string                    `yaml:"key_path,omitempty"`
	Passphrase *secret.EncryptedPassword `yaml:"passphrase,omitempty"`
}

// IsDangerous reports whether any tag marks this connection as one where
// destructive statements should be confirmed.
func (c *SavedConnection) IsDangerous() bool {
	for _, tag := range c.Tags {
		switch strings.ToLower(tag) {
		case TagProd, TagProduction, TagSensitive:
			return true
		}
	}
	return false
}

// HasTag reports whether the connection carries tag, case-insensitively.
func (c *SavedConnection) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Resolve decrypts stored secrets with key and produces the open request.
func (c *SavedConnection) Resolve(key []byte) (connection.OpenSpec, error) {
	spec := connection.OpenSpec{Dangerous: c.IsDangerous()}

	switch c.Type {
	case "sqlite":
		spec.Descriptor = connection.Descriptor{
			Backend: connection.BackendSQLite,
			Name:    c.Name,
			Path:    c.Path,
		}
	case "postgres":
		desc := connection.Descriptor{
			Backend:  connection.BackendPostgres,
			Name:     c.Name,
			Host:     c.Host,
			Port:     c.Port,
			Database: c.Database,
			User:     c.Username,
		}
		if c.Password != nil {
			pw, err := secret.Decrypt(key, *c.Password)
			if err != nil {
				return connection.OpenSpec{}, fmt.Errorf("could not decrypt password for %q: %w", c.Name, err)
			}
			desc.Password = pw
		}
		spec.Descriptor = desc

		if c.SSH != nil {
			auth := sshtunnel.Auth{Kind: sshtunnel.AuthAgent}
			if c.SSH.KeyPath != "" {
				auth = sshtunnel.Auth{Kind: sshtunnel.AuthKeyFile, KeyPath: c.SSH.KeyPath}
				if c.SSH.Passphrase != nil {
					pp, err := secret.Decrypt(key, *c.SSH.Passphrase)
					if err != nil {
						return connection.OpenSpec{}, fmt.Errorf("could not decrypt SSH passphrase for %q: %w", c.Name, err)
					}
					auth.Passphrase = pp
				}
			}
			port := c.SSH.Port
			if port == 0 {
				port = 22
			}
			spec.SSH = &sshtunnel.Config{
				Host: c.SSH.Host,
				Port: port,
				User: c.SSH.Username,
				Auth: auth,
			}
		}
	default:
		return connection.OpenSpec{}, fmt.Errorf("unknown connection type %q", c.Type)
	}

	return spec, nil
}

// connectionsFile is the yaml document persisted on disk.
type connectionsFile struct {
	Connections    []SavedConnection `yaml:"connections"`
	LastConnection string            `yaml:"last_connection,omitempty"`
}

// ConnectionStore is the yaml-backed saved-connection registry.
type ConnectionStore struct {
	mu   sync.Mutex
	path string
	data connectionsFile
}

// NewConnectionStore loads the store at dir/connections.yaml; a missing
// file yields an empty store.
func NewConnectionStore(dir string) (*ConnectionStore, error) {
	s := &ConnectionStore{path: filepath.Join(dir, "connections.yaml")}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read connections file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse connections file: %w", err)
	}
	return s, nil
}

func (s *ConnectionStore) save() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("failed to encode connections: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write connections file: %w", err)
	}
	return nil
}

// List returns all saved connections.
func (s *ConnectionStore) List() []SavedConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SavedConnection, len(s.data.Connections))
	copy(out, s.data.Connections)
	return out
}

// Find returns the saved connection with the given name.
func (s *ConnectionStore) Find(name string) (SavedConnection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.data.Connections {
		if c.Name == name {
			return c, true
		}
	}
	return SavedConnection{}, false
}

// Add saves a connection, replacing any existing one with the same name.
func (s *ConnectionStore) Add(conn SavedConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.data.Connections {
		if c.Name == conn.Name {
			s.data.Connections[i] = conn
			return s.save()
		}
	}
	s.data.Connections = append(s.data.Connections, conn)
	return s.save()
}

// Remove deletes the saved connection with the given name.
func (s *ConnectionStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.data.Connections {
		if c.Name == name {
			s.data.Connections = append(s.data.Connections[:i], s.data.Connections[i+1:]...)
			if s.data.LastConnection == name {
				s.data.LastConnection = ""
			}
			return s.save()
		}
	}
	return nil
}

// SetLastConnection remembers the most recently opened connection.
func (s *ConnectionStore) SetLastConnection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LastConnection = name
	return s.save()
}

// LastConnection returns the most recently opened connection name.
func (s *ConnectionStore) LastConnection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastConnection
}
