package fixture

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
)

// cleanupTables is the fixed leaf-to-root deletion order. A table is always
// purged before every table it references, so engines enforcing referential
// integrity without cascading deletes never reject the run. The root entity
// goes last.
var cleanupTables = []string{
	"audit_trail",
	"vital_signs",
	"medications",
	"patient_allergies",
	"appointments",
	"medical_records",
	"patients",
}

// Cleaner removes synthetic fixtures across the dependency graph. Cleanup
// is idempotent: a second run over the same scope deletes nothing and
// raises nothing.
type Cleaner struct {
	exec   *db.Executor
	logger zerolog.Logger
}

// NewCleaner creates a Cleaner over an open connection.
func NewCleaner(exec *db.Executor, logger zerolog.Logger) *Cleaner {
	return &Cleaner{exec: exec, logger: logger.With().Str("component", "cleanup").Logger()}
}

// Cleanup deletes every row the scope identifies, inside one transaction so
// a partial deletion never commits, then verifies per table that nothing
// remains. A nonzero residual is reported as a test-data error naming the
// table and count. An empty scope is a no-op.
func (c *Cleaner) Cleanup(ctx context.Context, scope Scope) error {
	if scope.Empty() {
		c.logger.Debug().Msg("empty cleanup scope, nothing to do")
		return nil
	}

	err := c.exec.RunInTx(ctx, func(q db.Queryer) error {
		if len(scope.PatientIDs) > 0 || len(scope.Prefixes) > 0 {
			for _, table := range cleanupTables {
				deleted, err := c.deleteFromTable(ctx, q, table, scope)
				if err != nil {
					return err
				}
				if deleted > 0 {
					c.logger.Info().Str("table", table).Int64("rows", deleted).Msg("fixtures deleted")
				}
			}
		}
		if scope.UserMarker != "" {
			deleted, err := q.Exec(ctx,
				"DELETE FROM users WHERE username LIKE ? OR created_by = ?",
				scope.UserMarker+"%", scope.UserMarker)
			if err != nil {
				return err
			}
			if deleted > 0 {
				c.logger.Info().Int64("rows", deleted).Msg("synthetic users deleted")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.verifyResiduals(ctx, scope)
}

// deleteFromTable purges one dependent table. vital_signs carries no
// patient key and is reached through its medical record.
func (c *Cleaner) deleteFromTable(ctx context.Context, q db.Queryer, table string, scope Scope) (int64, error) {
	where, args := patientPredicate(scope)
	switch table {
	case "vital_signs":
		return q.Exec(ctx,
			"DELETE FROM vital_signs WHERE record_id IN (SELECT record_id FROM medical_records WHERE "+where+")",
			args...)
	default:
		return q.Exec(ctx, "DELETE FROM "+table+" WHERE "+where, args...)
	}
}

// verifyResiduals runs after commit as the safety net for engines whose
// transactional guarantees are weaker than advertised.
func (c *Cleaner) verifyResiduals(ctx context.Context, scope Scope) error {
	if len(scope.PatientIDs) > 0 || len(scope.Prefixes) > 0 {
		where, args := patientPredicate(scope)
		for _, table := range cleanupTables {
			query := "SELECT COUNT(*) AS n FROM " + table + " WHERE " + where
			if table == "vital_signs" {
				query = "SELECT COUNT(*) AS n FROM vital_signs WHERE record_id IN (SELECT record_id FROM medical_records WHERE " + where + ")"
			}
			rows, err := c.exec.Query(ctx, query, args...)
			if err != nil {
				return err
			}
			if n := rows[0].Int("n"); n != 0 {
				return errs.TestData("cleanup left %d residual row(s) in %s", n, table)
			}
		}
	}
	if scope.UserMarker != "" {
		rows, err := c.exec.Query(ctx,
			"SELECT COUNT(*) AS n FROM users WHERE username LIKE ? OR created_by = ?",
			scope.UserMarker+"%", scope.UserMarker)
		if err != nil {
			return err
		}
		if n := rows[0].Int("n"); n != 0 {
			return errs.TestData("cleanup left %d residual row(s) in users", n)
		}
	}
	return nil
}

// patientPredicate builds the patient_id match for a scope with bound
// parameters only; scope values never reach statement text.
func patientPredicate(scope Scope) (string, []any) {
	var clauses []string
	var args []any
	for _, id := range scope.PatientIDs {
		clauses = append(clauses, "patient_id = ?")
		args = append(args, id)
	}
	for _, prefix := range scope.Prefixes {
		clauses = append(clauses, "patient_id LIKE ?")
		args = append(args, prefix+"%")
	}
	if len(clauses) == 0 {
		// Matches nothing; keeps callers from deleting a whole table on
		// an id-less scope.
		return "1 = 0", nil
	}
	return strings.Join(clauses, " OR "), args
}
