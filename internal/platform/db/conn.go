// Package db owns the backend connection lifecycle and parameterized query
// execution for the verification core. One Manager is created per test
// execution context and never shared across contexts; every engine-specific
// difference stays behind the Dialect interface.
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"

	// Registered drivers, one per supported backend kind.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Manager owns exactly one backend connection. It starts disconnected,
// transitions to connected on a successful Connect, and back on Disconnect.
// A failed Connect leaves it disconnected and never leaks a handle.
type Manager struct {
	logger  zerolog.Logger
	handle  *sql.DB
	dialect Dialect
	cfg     Config
}

// NewManager creates a disconnected Manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{logger: logger.With().Str("component", "db").Logger()}
}

// Connect validates the config, opens the backend handle, and verifies it
// with a ping. Connecting while already connected is a validation error: the
// caller must disconnect explicitly first so the old handle is never leaked
// silently.
func (m *Manager) Connect(ctx context.Context, cfg Config) error {
	if m.handle != nil {
		return errs.Validation("already connected to %s; disconnect first", m.cfg.Target())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dialect := dialectFor(cfg.Kind)
	handle, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return errs.Wrap(errs.KindConnection, err, "open %s database %s", cfg.Kind, cfg.Target())
	}

	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)
	handle.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StatementTimeout())
	defer cancel()
	if err := handle.PingContext(pingCtx); err != nil {
		handle.Close()
		return errs.Wrap(errs.KindConnection, err, "ping %s database %s", cfg.Kind, cfg.Target())
	}

	m.handle = handle
	m.dialect = dialect
	m.cfg = cfg
	m.logger.Info().
		Str("kind", string(cfg.Kind)).
		Str("target", cfg.Target()).
		Msg("database connected")
	return nil
}

// Disconnect closes the connection. It is idempotent: disconnecting while
// already disconnected is a no-op.
func (m *Manager) Disconnect() error {
	if m.handle == nil {
		return nil
	}
	err := m.handle.Close()
	m.handle = nil
	m.dialect = nil
	if err != nil {
		return errs.Wrap(errs.KindConnection, err, "close %s database %s", m.cfg.Kind, m.cfg.Target())
	}
	m.logger.Info().Str("target", m.cfg.Target()).Msg("database disconnected")
	return nil
}

// Connected reports whether a live handle is held.
func (m *Manager) Connected() bool { return m.handle != nil }

// Kind returns the connected backend kind, or "" when disconnected.
func (m *Manager) Kind() Kind {
	if m.dialect == nil {
		return ""
	}
	return m.dialect.Kind()
}

// Executor returns a query executor bound to the current connection. The
// executor becomes invalid after Disconnect; operations on it then return
// validation errors rather than touching a closed handle.
func (m *Manager) Executor() *Executor {
	return &Executor{mgr: m, logger: m.logger}
}
