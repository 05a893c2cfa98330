// Package engine is the command surface of the application: it ties the
// connection manager, the per-tab query lifecycle, the statement classifier
// and the history store together behind the operations the UI shell calls.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/quernlabs/quern/internal/config"
	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/history"
	"github.com/quernlabs/quern/internal/models"
	"github.com/quernlabs/quern/internal/tabs"
)

// ErrNoConnection is returned when a tab has no connection bound to it.
var ErrNoConnection = errors.New("no active connection for this tab")

// Engine coordinates all stateful subsystems. Its methods are safe for
// concurrent use; each subsystem guards its own state and no lock is held
// across backend I/O.
type Engine struct {
	cfg     *config.Config
	conns   *connection.Manager
	tabs    *tabs.Registry
	history *history.Store
	logger  *slog.Logger
}

// New assembles an engine. hist may be nil to disable history recording.
func New(cfg *config.Config, conns *connection.Manager, hist *history.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		cfg:     cfg,
		conns:   conns,
		tabs:    tabs.NewRegistry(),
		history: hist,
		logger:  logger.With("component", "engine"),
	}
}

// OpenConnection opens (or returns the already-open) named connection.
func (e *Engine) OpenConnection(ctx context.Context, name string, spec connection.OpenSpec) (*connection.Open, error) {
	return e.conns.OpenConnection(ctx, name, spec)
}

// TestConnection verifies that spec can be dialed, then tears everything
// down again.
func (e *Engine) TestConnection(ctx context.Context, spec connection.OpenSpec) error {
	return e.conns.TestConnection(ctx, spec)
}

// CloseConnection closes the named connection and its tunnel.
func (e *Engine) CloseConnection(name string) error {
	return e.conns.CloseConnection(name)
}

// ListOpen returns the names of all open connections, sorted.
func (e *Engine) ListOpen() []string {
	return e.conns.ListOpen()
}

// SetTabConnection binds the tab to an open named connection, cancelling any
// query still running against the previous one.
func (e *Engine) SetTabConnection(tabID, connName string) error {
	if _, err := e.conns.Get(connName); err != nil {
		return err
	}
	e.tabs.SwapConnection(tabID, connName)
	return nil
}

// TabConnection returns the connection name the tab is bound to.
func (e *Engine) TabConnection(tabID string) (string, bool) {
	return e.tabs.ConnectionName(tabID)
}

// CloseTab cancels any in-flight query and forgets the tab.
func (e *Engine) CloseTab(tabID string) {
	e.tabs.CloseTab(tabID)
}

// Close shuts down all open connections and the history store.
func (e *Engine) Close() {
	e.conns.CloseAll()
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			e.logger.Warn("failed to close history store", "error", err)
		}
	}
}

// poolForTab resolves the tab's bound connection to its pool. State is
// copied out under the subsystem locks before any backend call.
func (e *Engine) poolForTab(tabID string) (connection.Pool, string, error) {
	name, ok := e.tabs.ConnectionName(tabID)
	if !ok {
		return nil, "", ErrNoConnection
	}
	open, err := e.conns.Get(name)
	if err != nil {
		return nil, name, err
	}
	return open.Pool, name, nil
}

func (e *Engine) rowCap() int {
	if e.cfg != nil && e.cfg.General.RowLimit > 0 {
		return e.cfg.General.RowLimit
	}
	return models.DefaultRowLimit
}
