// Package testutil provides shared database helpers for tests: an embedded
// sqlite database carrying the full healthcare schema the verification core
// runs against.
package testutil

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
)

// Schema is the healthcare schema consumed by the verification core, in the
// dependency order the cleaner relies on. Production schemas belong to the
// application under test; this DDL exists only for test databases.
const Schema = `
CREATE TABLE patients (
	patient_id             TEXT PRIMARY KEY,
	first_name             TEXT,
	last_name              TEXT,
	middle_name            TEXT,
	date_of_birth          TEXT,
	gender                 TEXT,
	social_security_number TEXT,
	phone_number           TEXT,
	email                  TEXT,
	address_line1          TEXT,
	city                   TEXT,
	state                  TEXT,
	zip_code               TEXT,
	status                 TEXT NOT NULL DEFAULT 'ACTIVE',
	created_by             TEXT,
	created_date           TIMESTAMP,
	updated_date           TIMESTAMP
);

CREATE TABLE providers (
	provider_id TEXT PRIMARY KEY,
	first_name  TEXT,
	last_name   TEXT,
	specialty   TEXT,
	npi_number  TEXT,
	status      TEXT NOT NULL DEFAULT 'ACTIVE'
);

CREATE TABLE appointments (
	appointment_id   TEXT PRIMARY KEY,
	patient_id       TEXT NOT NULL REFERENCES patients(patient_id),
	provider_id      TEXT REFERENCES providers(provider_id),
	appointment_type TEXT,
	appointment_date TIMESTAMP,
	duration_minutes INTEGER,
	status           TEXT,
	notes            TEXT,
	created_date     TIMESTAMP
);

CREATE TABLE medical_records (
	record_id       TEXT PRIMARY KEY,
	patient_id      TEXT NOT NULL REFERENCES patients(patient_id),
	provider_id     TEXT REFERENCES providers(provider_id),
	visit_date      TEXT,
	chief_complaint TEXT,
	diagnosis       TEXT,
	treatment       TEXT,
	provider_notes  TEXT,
	created_date    TIMESTAMP
);

CREATE TABLE vital_signs (
	vital_id                 TEXT PRIMARY KEY,
	record_id                TEXT NOT NULL REFERENCES medical_records(record_id),
	blood_pressure_systolic  INTEGER,
	blood_pressure_diastolic INTEGER,
	heart_rate               INTEGER,
	temperature              REAL,
	weight_lbs               INTEGER,
	height_inches            INTEGER,
	recorded_at              TIMESTAMP
);

CREATE TABLE medications (
	medication_id   TEXT PRIMARY KEY,
	patient_id      TEXT NOT NULL REFERENCES patients(patient_id),
	provider_id     TEXT REFERENCES providers(provider_id),
	medication_name TEXT,
	dosage          TEXT,
	frequency       TEXT,
	start_date      TEXT,
	end_date        TEXT,
	status          TEXT NOT NULL DEFAULT 'ACTIVE'
);

CREATE TABLE patient_allergies (
	allergy_id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL REFERENCES patients(patient_id),
	allergen   TEXT,
	reaction   TEXT,
	severity   TEXT,
	noted_date TEXT
);

CREATE TABLE audit_trail (
	audit_id     INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id   TEXT REFERENCES patients(patient_id),
	user_id      TEXT NOT NULL,
	action       TEXT NOT NULL,
	old_value    TEXT,
	new_value    TEXT,
	created_date TIMESTAMP NOT NULL
);

CREATE TABLE users (
	user_id       TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	password_hash TEXT,
	role          TEXT NOT NULL DEFAULT 'NURSE',
	provider_id   TEXT REFERENCES providers(provider_id),
	created_by    TEXT,
	created_date  TIMESTAMP
);
`

// Open connects a Manager to a fresh sqlite database in the test's temp
// directory, applies the healthcare schema, and registers teardown. The
// returned executor is ready for use.
func Open(t *testing.T) (*db.Manager, *db.Executor) {
	t.Helper()

	mgr := db.NewManager(zerolog.Nop())
	cfg := db.Config{
		Kind:    db.SQLite,
		Path:    filepath.Join(t.TempDir(), "healthcare.db"),
		Timeout: 10 * time.Second,
	}
	if err := mgr.Connect(context.Background(), cfg); err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(func() {
		if err := mgr.Disconnect(); err != nil {
			t.Errorf("disconnect test database: %v", err)
		}
	})

	exec := mgr.Executor()
	if err := ApplySchema(context.Background(), exec); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return mgr, exec
}

// ApplySchema creates the healthcare tables on an open connection.
func ApplySchema(ctx context.Context, exec *db.Executor) error {
	for _, stmt := range SchemaStatements() {
		if _, err := exec.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SchemaStatements splits Schema into individual CREATE TABLE statements,
// since not every driver accepts multi-statement exec.
func SchemaStatements() []string {
	var out []string
	for _, part := range strings.Split(Schema, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
