package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quernlabs/quern/internal/config"
	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/engine"
	"github.com/quernlabs/quern/internal/history"
	"github.com/quernlabs/quern/internal/secret"
	"github.com/quernlabs/quern/internal/snippets"
	"github.com/quernlabs/quern/internal/sshtunnel"
)

// cliTab is the single tab the command-line shell drives. The engine's tab
// model exists for multi-pane frontends; the CLI only ever needs one.
const cliTab = "cli"

// App wires the subsystems together for one command invocation.
type App struct {
	Config   *config.Config
	Store    *config.ConnectionStore
	Keys     *secret.Keystore
	Engine   *engine.Engine
	Snippets *snippets.Store

	history *history.Store
}

func newApp(verbose bool) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	store, err := config.NewConnectionStore(dir)
	if err != nil {
		return nil, err
	}

	keys, err := secret.NewKeystore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.NewStore(filepath.Join(dir, "history.db"))
		if err != nil {
			logger.Warn("history disabled", "error", err)
		}
	}

	snips, err := snippets.NewStore(dir)
	if err != nil {
		return nil, err
	}

	knownHosts := sshtunnel.NewKnownHostsStore(filepath.Join(dir, "known_hosts"))
	manager := connection.NewManager(knownHosts, logger)

	return &App{
		Config:   cfg,
		Store:    store,
		Keys:     keys,
		Engine:   engine.New(cfg, manager, hist, logger),
		Snippets: snips,
		history:  hist,
	}, nil
}

// Close tears down every open connection, tunnel and store.
func (a *App) Close() {
	a.Engine.Close()
}

// connect resolves the saved connection by name, opens it and binds the CLI
// tab to it.
func (a *App) connect(ctx context.Context, name string) error {
	saved, ok := a.Store.Find(name)
	if !ok {
		return fmt.Errorf("no saved connection named %q", name)
	}

	spec, err := a.resolve(&saved)
	if err != nil {
		return err
	}

	if _, err := a.Engine.OpenConnection(ctx, name, spec); err != nil {
		return fmt.Errorf("failed to connect to %q: %w", name, err)
	}
	if err := a.Engine.SetTabConnection(cliTab, name); err != nil {
		return err
	}
	return a.Store.SetLastConnection(name)
}

// resolve decrypts the saved connection's secrets. The master key is only
// fetched when the connection actually carries any.
func (a *App) resolve(saved *config.SavedConnection) (connection.OpenSpec, error) {
	var key []byte
	if saved.Password != nil || (saved.SSH != nil && saved.SSH.Passphrase != nil) {
		var err error
		key, err = a.Keys.MasterKey()
		if err != nil {
			return connection.OpenSpec{}, fmt.Errorf("failed to load master key: %w", err)
		}
	}
	return saved.Resolve(key)
}
