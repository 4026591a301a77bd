package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/testutil"
)

func TestQueryBindsParameters(t *testing.T) {
	_, exec := testutil.Open(t)
	ctx := context.Background()

	_, err := exec.Exec(ctx, `
		INSERT INTO patients (patient_id, first_name, last_name, date_of_birth, gender, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"PAT_1", "Ana", "O'Brien; DROP TABLE patients", "1990-04-02", "F", "ACTIVE")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := exec.Query(ctx, "SELECT last_name FROM patients WHERE patient_id = ?", "PAT_1")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if got := rows[0].String("last_name"); got != "O'Brien; DROP TABLE patients" {
		t.Fatalf("hostile value must round-trip verbatim, got %q", got)
	}
}

func TestExecReturnsAffectedCount(t *testing.T) {
	_, exec := testutil.Open(t)
	ctx := context.Background()

	for _, id := range []string{"PAT_1", "PAT_2", "PAT_3"} {
		if _, err := exec.Exec(ctx,
			"INSERT INTO patients (patient_id, status) VALUES (?, 'ACTIVE')", id); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	affected, err := exec.Exec(ctx, "DELETE FROM patients WHERE patient_id LIKE ?", "PAT_%")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if affected != 3 {
		t.Fatalf("affected = %d, want 3", affected)
	}
}

func TestQueryErrorWrapsCause(t *testing.T) {
	_, exec := testutil.Open(t)

	_, err := exec.Query(context.Background(), "SELECT * FROM no_such_table")
	if !errs.IsKind(err, errs.KindQuery) {
		t.Fatalf("expected query error, got %v", err)
	}
	var tagged *errs.Error
	if !errors.As(err, &tagged) || tagged.Err == nil {
		t.Fatal("driver cause must be attached to the query error")
	}
}

func TestRowTypedAccessors(t *testing.T) {
	_, exec := testutil.Open(t)
	ctx := context.Background()

	if _, err := exec.Exec(ctx,
		"INSERT INTO patients (patient_id, first_name, created_date) VALUES (?, ?, ?)",
		"PAT_1", "Ana", time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := exec.Query(ctx,
		"SELECT patient_id, first_name, COUNT(*) AS n FROM patients GROUP BY patient_id")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	row := rows[0]
	if row.String("patient_id") != "PAT_1" || row.String("first_name") != "Ana" {
		t.Fatalf("unexpected strings: %v", row)
	}
	if row.Int("n") != 1 {
		t.Fatalf("count = %d, want 1", row.Int("n"))
	}
}

func TestRunInTxCommit(t *testing.T) {
	_, exec := testutil.Open(t)
	ctx := context.Background()

	err := exec.RunInTx(ctx, func(q db.Queryer) error {
		if _, err := q.Exec(ctx, "INSERT INTO patients (patient_id) VALUES ('PAT_1')"); err != nil {
			return err
		}
		_, err := q.Exec(ctx, "INSERT INTO patients (patient_id) VALUES ('PAT_2')")
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	rows, err := exec.Query(ctx, "SELECT COUNT(*) AS n FROM patients")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows[0].Int("n") != 2 {
		t.Fatalf("expected both inserts committed, got %d", rows[0].Int("n"))
	}
}

func TestRunInTxRollback(t *testing.T) {
	_, exec := testutil.Open(t)
	ctx := context.Background()

	sentinel := errors.New("abort")
	err := exec.RunInTx(ctx, func(q db.Queryer) error {
		if _, err := q.Exec(ctx, "INSERT INTO patients (patient_id) VALUES ('PAT_1')"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel returned, got %v", err)
	}

	rows, err := exec.Query(ctx, "SELECT COUNT(*) AS n FROM patients")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows[0].Int("n") != 0 {
		t.Fatal("rolled-back insert must not be visible")
	}
}

func TestStatementTimeout(t *testing.T) {
	_, exec := testutil.Open(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Query(ctx, "SELECT 1")
	if !errs.IsKind(err, errs.KindQuery) {
		t.Fatalf("cancelled statement should surface as a query error, got %v", err)
	}
}
