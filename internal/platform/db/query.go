package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
)

// Row is one result row, column name to normalized scalar. Byte slices are
// converted to strings and engine-specific boolean encodings to bool, so
// callers see one shape regardless of backend.
type Row map[string]any

// String returns the named column as a string.
func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Int returns the named column as an int, tolerating the integer widths the
// drivers produce.
func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Bool returns the named column as a bool.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v == 1
	}
	return false
}

// Time returns the named column as a time.Time when the driver produced one.
func (r Row) Time(col string) time.Time {
	t, _ := r[col].(time.Time)
	return t
}

// Queryer is the read/write surface shared by the executor and an open
// transaction, so validators and cleaners run identically inside and outside
// a unit of work.
type Queryer interface {
	// Query executes a statement with bound parameters and fetches all rows.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	// Exec executes a statement with bound parameters and returns the
	// affected-row count.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// Executor runs parameterized statements against the managed connection.
// Callers write ? placeholders; the dialect rebinds them. Parameters are
// always bound, never concatenated into the statement text. Each call is
// independently committed unless run through RunInTx.
type Executor struct {
	mgr    *Manager
	logger zerolog.Logger
	redact func(string) string
}

// WithRedactor returns a copy of the executor that passes statement text
// through f before logging it. Used to mask sensitive literals.
func (e *Executor) WithRedactor(f func(string) string) *Executor {
	clone := *e
	clone.redact = f
	return &clone
}

func (e *Executor) ready() error {
	if e.mgr == nil || e.mgr.handle == nil {
		return errs.Validation("not connected to a database")
	}
	return nil
}

func (e *Executor) logQuery(query string) {
	text := strings.Join(strings.Fields(query), " ")
	if e.redact != nil {
		text = e.redact(text)
	}
	e.logger.Debug().Str("query", text).Msg("executing statement")
}

// Query executes a fetching statement and returns all rows.
func (e *Executor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	e.logQuery(query)

	ctx, cancel := context.WithTimeout(ctx, e.mgr.cfg.StatementTimeout())
	defer cancel()

	rows, err := e.mgr.handle.QueryContext(ctx, e.mgr.dialect.Rebind(query), args...)
	if err != nil {
		return nil, errs.Wrap(errs.KindQuery, err, "query failed")
	}
	defer rows.Close()

	return scanRows(rows, e.mgr.dialect)
}

// Exec executes a non-fetching statement and returns the affected-row count.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	e.logQuery(query)

	ctx, cancel := context.WithTimeout(ctx, e.mgr.cfg.StatementTimeout())
	defer cancel()

	res, err := e.mgr.handle.ExecContext(ctx, e.mgr.dialect.Rebind(query), args...)
	if err != nil {
		return 0, errs.Wrap(errs.KindQuery, err, "exec failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Wrap(errs.KindQuery, err, "read affected rows")
	}
	return affected, nil
}

// RunInTx executes fn inside one transaction: every statement issued through
// the passed Queryer commits together or not at all. Used by teardown
// cleanup so a partial deletion never commits.
func (e *Executor) RunInTx(ctx context.Context, fn func(Queryer) error) error {
	if err := e.ready(); err != nil {
		return err
	}

	tx, err := e.mgr.handle.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindQuery, err, "begin transaction")
	}

	q := &txQueryer{exec: e, tx: tx}
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			e.logger.Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindQuery, err, "commit transaction")
	}
	return nil
}

type txQueryer struct {
	exec *Executor
	tx   *sql.Tx
}

func (t *txQueryer) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := t.exec.ready(); err != nil {
		return nil, err
	}
	t.exec.logQuery(query)

	ctx, cancel := context.WithTimeout(ctx, t.exec.mgr.cfg.StatementTimeout())
	defer cancel()

	rows, err := t.tx.QueryContext(ctx, t.exec.mgr.dialect.Rebind(query), args...)
	if err != nil {
		return nil, errs.Wrap(errs.KindQuery, err, "query failed in transaction")
	}
	defer rows.Close()

	return scanRows(rows, t.exec.mgr.dialect)
}

func (t *txQueryer) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := t.exec.ready(); err != nil {
		return 0, err
	}
	t.exec.logQuery(query)

	ctx, cancel := context.WithTimeout(ctx, t.exec.mgr.cfg.StatementTimeout())
	defer cancel()

	res, err := t.tx.ExecContext(ctx, t.exec.mgr.dialect.Rebind(query), args...)
	if err != nil {
		return 0, errs.Wrap(errs.KindQuery, err, "exec failed in transaction")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Wrap(errs.KindQuery, err, "read affected rows")
	}
	return affected, nil
}

func scanRows(rows *sql.Rows, dialect Dialect) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.KindQuery, err, "read columns")
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errs.Wrap(errs.KindQuery, err, "read column types")
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.KindQuery, err, "scan row")
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i], types[i], dialect)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindQuery, err, "iterate rows")
	}
	return out, nil
}

func normalizeValue(v any, ct *sql.ColumnType, dialect Dialect) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if strings.Contains(strings.ToUpper(ct.DatabaseTypeName()), "BOOL") {
		if b, ok := dialect.NormalizeBool(v); ok {
			return b
		}
	}
	return v
}
