package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/quernlabs/quern/internal/sshtunnel"
)

// OpenSpec is a fully resolved request to open one named connection:
// descriptor with plaintext password, optional SSH hop, and whether
// destructive statements need confirmation.
type OpenSpec struct {
	Descriptor Descriptor
	SSH        *sshtunnel.Config
	Dangerous  bool
}

// Open is one live named connection: its pool, the tunnel keeping it
// reachable (if any), and metadata.
type Open struct {
	Name        string
	Pool        Pool
	Dangerous   bool
	ConnectedAt time.Time

	tunnel *sshtunnel.Tunnel
}

// Manager holds the table of open named connections. The lock guards only
// map access; dialing and tunnelling happen outside it.
type Manager struct {
	mu   sync.Mutex
	open map[string]*Open

	knownHosts *sshtunnel.KnownHostsStore
	logger     *slog.Logger
}

func NewManager(knownHosts *sshtunnel.KnownHostsStore, logger *slog.Logger) *Manager {
	return &Manager{
		open:       make(map[string]*Open),
		knownHosts: knownHosts,
		logger:     logger.With("component", "connections"),
	}
}

// OpenConnection establishes the pool (and SSH tunnel, when configured) for
// name. Idempotent: an already-open connection is returned as is.
func (m *Manager) OpenConnection(ctx context.Context, name string, spec OpenSpec) (*Open, error) {
	m.mu.Lock()
	if existing, ok := m.open[name]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	desc, tunnel, err := m.resolveEndpoint(spec)
	if err != nil {
		return nil, err
	}

	pool, err := OpenPool(ctx, desc)
	if err != nil {
		if tunnel != nil {
			tunnel.Close()
		}
		return nil, err
	}

	conn := &Open{
		Name:        name,
		Pool:        pool,
		Dangerous:   spec.Dangerous,
		ConnectedAt: time.Now(),
		tunnel:      tunnel,
	}

	m.mu.Lock()
	if existing, ok := m.open[name]; ok {
		// Lost the race to another open. Keep the first one.
		m.mu.Unlock()
		pool.Close()
		if tunnel != nil {
			tunnel.Close()
		}
		return existing, nil
	}
	m.open[name] = conn
	m.mu.Unlock()

	m.logger.Info("connection opened", "name", name, "backend", desc.Backend)
	return conn, nil
}

// TestConnection opens a throwaway pool to verify the endpoint works, tearing
// down the pool and any temporary tunnel before returning.
func (m *Manager) TestConnection(ctx context.Context, spec OpenSpec) error {
	desc, tunnel, err := m.resolveEndpoint(spec)
	if err != nil {
		return err
	}
	if tunnel != nil {
		defer tunnel.Close()
	}

	pool, err := OpenPool(ctx, desc)
	if err != nil {
		return err
	}
	defer pool.Close()

	return pool.Ping(ctx)
}

// resolveEndpoint establishes the SSH tunnel when one is configured and
// rewrites the descriptor to point at its local port.
func (m *Manager) resolveEndpoint(spec OpenSpec) (Descriptor, *sshtunnel.Tunnel, error) {
	desc := spec.Descriptor
	if spec.SSH == nil || desc.Backend != BackendPostgres {
		return desc, nil, nil
	}

	tunnel, err := sshtunnel.Establish(*spec.SSH, desc.Host, desc.Port, m.knownHosts, m.logger)
	if err != nil {
		return Descriptor{}, nil, err
	}
	return desc.WithEndpoint("127.0.0.1", tunnel.LocalPort), tunnel, nil
}

// Get returns the open connection registered under name.
func (m *Manager) Get(name string) (*Open, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.open[name]
	if !ok {
		return nil, fmt.Errorf("connection %q is not open", name)
	}
	return conn, nil
}

// CloseConnection drops the pool and SSH tunnel for name. Tabs pointing at
// it keep their name binding and fail until it is reopened.
func (m *Manager) CloseConnection(name string) error {
	m.mu.Lock()
	conn, ok := m.open[name]
	delete(m.open, name)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("connection %q is not open", name)
	}

	conn.Pool.Close()
	if conn.tunnel != nil {
		conn.tunnel.Close()
	}
	m.logger.Info("connection closed", "name", name)
	return nil
}

// ListOpen returns the names of all open connections, sorted.
func (m *Manager) ListOpen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.open))
	for name := range m.open {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll tears down every open connection. Called on shutdown so tunnels
// are cancelled explicitly rather than left to process exit.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := make([]*Open, 0, len(m.open))
	for _, c := range m.open {
		conns = append(conns, c)
	}
	m.open = make(map[string]*Open)
	m.mu.Unlock()

	for _, c := range conns {
		c.Pool.Close()
		if c.tunnel != nil {
			c.tunnel.Close()
		}
	}
}
