package db

import (
	"time"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
)

// Kind identifies a supported backend engine.
type Kind string

const (
	Postgres Kind = "postgres"
	MySQL    Kind = "mysql"
	SQLite   Kind = "sqlite"
)

// DefaultStatementTimeout bounds each statement when the config does not
// set one. Exceeding it surfaces as a query error, never as a hang.
const DefaultStatementTimeout = 30 * time.Second

// Config describes one backend target. Secret never appears in errors or
// logs.
type Config struct {
	Kind     Kind
	Host     string
	Port     int
	Database string
	User     string
	Secret   string
	// Path is the database file location for embedded engines.
	Path string
	// Timeout bounds every statement issued through the executor.
	Timeout time.Duration
}

// Validate checks the per-kind required fields before any I/O is attempted.
// Embedded engines need only a file path; networked engines need the full
// host/port/database/user/secret descriptor.
func (c Config) Validate() error {
	switch c.Kind {
	case SQLite:
		if c.Path == "" {
			return errs.Validation("sqlite config requires a file path")
		}
	case Postgres, MySQL:
		switch {
		case c.Host == "":
			return errs.Validation("%s config requires a host", c.Kind)
		case c.Port <= 0:
			return errs.Validation("%s config requires a positive port", c.Kind)
		case c.Database == "":
			return errs.Validation("%s config requires a database name", c.Kind)
		case c.User == "":
			return errs.Validation("%s config requires a user", c.Kind)
		case c.Secret == "":
			return errs.Validation("%s config requires a secret", c.Kind)
		}
	default:
		return errs.Validation("unsupported database kind %q", c.Kind)
	}
	return nil
}

// StatementTimeout returns the configured timeout, or the default when unset.
func (c Config) StatementTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultStatementTimeout
}

// Target describes the connection destination for diagnostics. It never
// includes the credential.
func (c Config) Target() string {
	if c.Kind == SQLite {
		return c.Path
	}
	return c.Host + "/" + c.Database
}
