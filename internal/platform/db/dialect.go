package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect hides per-engine differences behind one contract so callers of the
// executor write a single query style regardless of backend. Implementations
// are stateless; one is selected at Connect time.
type Dialect interface {
	Kind() Kind
	// DriverName is the database/sql registration name.
	DriverName() string
	// DSN builds the driver connection string from a validated config.
	DSN(cfg Config) string
	// Rebind rewrites ? placeholders into the engine's native style.
	Rebind(query string) string
	// NormalizeBool reports whether v is this engine's representation of a
	// boolean, and its value. Engines without a native boolean type store
	// 0/1 integers.
	NormalizeBool(v any) (value, ok bool)
}

// dialectFor returns the dialect for a backend kind. Config.Validate has
// already rejected unknown kinds.
func dialectFor(kind Kind) Dialect {
	switch kind {
	case Postgres:
		return postgresDialect{}
	case MySQL:
		return mysqlDialect{}
	default:
		return sqliteDialect{}
	}
}

type postgresDialect struct{}

func (postgresDialect) Kind() Kind { return Postgres }
func (postgresDialect) DriverName() string { return "pgx" }

func (postgresDialect) DSN(cfg Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=prefer",
		cfg.User, cfg.Secret, cfg.Host, cfg.Port, cfg.Database)
}

// Rebind rewrites ? placeholders to $1..$n, leaving quoted literals alone.
func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (postgresDialect) NormalizeBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

type mysqlDialect struct{}

func (mysqlDialect) Kind() Kind { return MySQL }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DSN(cfg Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Secret, cfg.Host, cfg.Port, cfg.Database)
}

func (mysqlDialect) Rebind(query string) string { return query }

func (mysqlDialect) NormalizeBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		if b == 0 || b == 1 {
			return b == 1, true
		}
	}
	return false, false
}

type sqliteDialect struct{}

func (sqliteDialect) Kind() Kind { return SQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) DSN(cfg Config) string {
	// Referential integrity is off by default in sqlite; the cleaner's
	// ordering guarantees are only observable with it on.
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", cfg.Path)
}

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) NormalizeBool(v any) (bool, bool) {
	if b, ok := v.(int64); ok && (b == 0 || b == 1) {
		return b == 1, true
	}
	b, ok := v.(bool)
	return b, ok
}
