package patient_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/domain/patient"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/testutil"
)

func insertPatient(t *testing.T, exec *db.Executor, id string) {
	t.Helper()
	_, err := exec.Exec(context.Background(), `
		INSERT INTO patients (patient_id, first_name, last_name, date_of_birth, gender, status)
		VALUES (?, 'Ana', 'Pop', '1990-04-02', 'F', 'ACTIVE')`, id)
	if err != nil {
		t.Fatalf("insert patient %s: %v", id, err)
	}
}

func insertProvider(t *testing.T, exec *db.Executor, id string) {
	t.Helper()
	_, err := exec.Exec(context.Background(), `
		INSERT INTO providers (provider_id, first_name, last_name, specialty)
		VALUES (?, 'Dan', 'Ionescu', 'CARDIOLOGY')`, id)
	if err != nil {
		t.Fatalf("insert provider %s: %v", id, err)
	}
}

func TestValidateEmptyID(t *testing.T) {
	_, exec := testutil.Open(t)
	v := patient.NewValidator(exec, zerolog.Nop())

	_, err := v.Validate(context.Background(), "")
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error before any query, got %v", err)
	}
}

func TestValidateAbsentPatient(t *testing.T) {
	_, exec := testutil.Open(t)
	v := patient.NewValidator(exec, zerolog.Nop())

	report, err := v.Validate(context.Background(), "PAT_missing")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := patient.Report{}
	if report != want {
		t.Fatalf("absent patient should yield the zero report, got %+v", report)
	}
}

func TestValidateMinimalPatientPasses(t *testing.T) {
	_, exec := testutil.Open(t)
	v := patient.NewValidator(exec, zerolog.Nop())
	insertPatient(t, exec, "PAT_1")

	report, err := v.Validate(context.Background(), "PAT_1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := patient.Report{
		PatientExists:       true,
		HasRequiredFields:   true,
		DataIntegrityPassed: true,
	}
	if report != want {
		t.Fatalf("zero history is valid: got %+v", report)
	}
}

func TestValidateMissingRequiredField(t *testing.T) {
	_, exec := testutil.Open(t)
	v := patient.NewValidator(exec, zerolog.Nop())

	_, err := exec.Exec(context.Background(), `
		INSERT INTO patients (patient_id, first_name, last_name, status)
		VALUES ('PAT_1', 'Ana', 'Pop', 'ACTIVE')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	report, err := v.Validate(context.Background(), "PAT_1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.HasRequiredFields {
		t.Fatal("missing date_of_birth and gender must fail the field check")
	}
	if report.DataIntegrityPassed {
		t.Fatal("integrity must fail when required fields are missing")
	}
}

func TestValidateCountsDependents(t *testing.T) {
	_, exec := testutil.Open(t)
	ctx := context.Background()
	v := patient.NewValidator(exec, zerolog.Nop())
	insertPatient(t, exec, "PAT_1")
	insertProvider(t, exec, "PRV_1")

	for _, id := range []string{"MR_1", "MR_2"} {
		if _, err := exec.Exec(ctx, `
			INSERT INTO medical_records (record_id, patient_id, provider_id, diagnosis)
			VALUES (?, 'PAT_1', 'PRV_1', 'Hypertension')`, id); err != nil {
			t.Fatalf("insert record %s: %v", id, err)
		}
	}
	if _, err := exec.Exec(ctx, `
		INSERT INTO medications (medication_id, patient_id, provider_id, medication_name)
		VALUES ('MED_1', 'PAT_1', 'PRV_1', 'Lisinopril')`); err != nil {
		t.Fatalf("insert medication: %v", err)
	}

	report, err := v.Validate(ctx, "PAT_1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.MedicalRecordsCount != 2 {
		t.Fatalf("medical_records_count = %d, want 2", report.MedicalRecordsCount)
	}
	if report.PrescriptionsCount != 1 {
		t.Fatalf("prescriptions_count = %d, want 1", report.PrescriptionsCount)
	}
	if !report.DataIntegrityPassed {
		t.Fatalf("consistent aggregate must pass: %+v", report)
	}
}

// openUnenforced opens a database with foreign keys off, staging the
// inconsistencies a backend without enforced referential integrity can
// accumulate.
func openUnenforced(t *testing.T) *db.Executor {
	t.Helper()
	mgr := db.NewManager(zerolog.Nop())
	cfg := db.Config{Kind: db.SQLite, Path: t.TempDir() + "/orphans.db"}
	ctx := context.Background()
	if err := mgr.Connect(ctx, cfg); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { mgr.Disconnect() })
	exec := mgr.Executor()
	if err := testutil.ApplySchema(ctx, exec); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := exec.Exec(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	return exec
}

func TestValidateDetectsOrphanedDependents(t *testing.T) {
	ctx := context.Background()
	exec := openUnenforced(t)

	insertPatient(t, exec, "PAT_1")
	if _, err := exec.Exec(ctx, `
		INSERT INTO medications (medication_id, patient_id, provider_id, medication_name)
		VALUES ('MED_1', 'PAT_1', 'PRV_ghost', 'Metformin')`); err != nil {
		t.Fatalf("insert orphaned medication: %v", err)
	}

	v := patient.NewValidator(exec, zerolog.Nop())
	report, err := v.Validate(ctx, "PAT_1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.OrphanedRows != 1 {
		t.Fatalf("orphaned_rows = %d, want 1", report.OrphanedRows)
	}
	if report.DataIntegrityPassed {
		t.Fatal("an orphaned dependent must fail integrity regardless of counts")
	}
}

func TestValidateDetectsStrayVitalSigns(t *testing.T) {
	ctx := context.Background()
	exec := openUnenforced(t)

	insertPatient(t, exec, "PAT_1")
	if _, err := exec.Exec(ctx, `
		INSERT INTO vital_signs (vital_id, record_id, heart_rate)
		VALUES ('VIT_1', 'MR_ghost', 72)`); err != nil {
		t.Fatalf("insert stray vital: %v", err)
	}

	v := patient.NewValidator(exec, zerolog.Nop())
	report, err := v.Validate(ctx, "PAT_1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.OrphanedRows != 1 {
		t.Fatalf("orphaned_rows = %d, want 1", report.OrphanedRows)
	}
	if report.DataIntegrityPassed {
		t.Fatal("a vital sign whose medical record is gone must fail integrity")
	}
}

func TestValidateDateTypedBirthDate(t *testing.T) {
	// date_of_birth is declared DATE here; the driver hands the scanned
	// value back as a non-string type and the field check must still treat
	// it as populated.
	mgr := db.NewManager(zerolog.Nop())
	cfg := db.Config{Kind: db.SQLite, Path: t.TempDir() + "/typed.db"}
	ctx := context.Background()
	if err := mgr.Connect(ctx, cfg); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer mgr.Disconnect()
	exec := mgr.Executor()

	ddl := strings.Replace(testutil.Schema, "date_of_birth          TEXT", "date_of_birth          DATE", 1)
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := exec.Exec(ctx, stmt); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}

	dob := time.Date(1988, 6, 14, 0, 0, 0, 0, time.UTC)
	if _, err := exec.Exec(ctx, `
		INSERT INTO patients (patient_id, first_name, last_name, date_of_birth, gender, status)
		VALUES ('PAT_1', 'Ana', 'Pop', ?, 'F', 'ACTIVE')`, dob); err != nil {
		t.Fatalf("insert patient: %v", err)
	}

	v := patient.NewValidator(exec, zerolog.Nop())
	report, err := v.Validate(ctx, "PAT_1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.HasRequiredFields {
		t.Fatal("a date-typed birth date must count as populated")
	}
	if !report.DataIntegrityPassed {
		t.Fatalf("fully populated patient must pass: %+v", report)
	}
}

func TestValidateIsRepeatable(t *testing.T) {
	_, exec := testutil.Open(t)
	ctx := context.Background()
	v := patient.NewValidator(exec, zerolog.Nop())
	insertPatient(t, exec, "PAT_1")

	first, err := v.Validate(ctx, "PAT_1")
	if err != nil {
		t.Fatalf("first validate: %v", err)
	}
	second, err := v.Validate(ctx, "PAT_1")
	if err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if first != second {
		t.Fatalf("validation is read-only; %+v != %+v", first, second)
	}
}
