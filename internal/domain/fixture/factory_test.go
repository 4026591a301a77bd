package fixture_test

import (
	"strings"
	"testing"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/domain/fixture"
)

func TestFactoryPatient(t *testing.T) {
	f := fixture.NewFactory(42)
	p := f.Patient()

	if !strings.HasPrefix(p.ID, fixture.PatientPrefix) {
		t.Fatalf("patient id %q missing reserved prefix", p.ID)
	}
	if p.FirstName == "" || p.LastName == "" || p.DateOfBirth == "" || p.Gender == "" {
		t.Fatalf("required demographic fields must be populated: %+v", p)
	}
	if p.Status != "ACTIVE" {
		t.Fatalf("status = %q, want ACTIVE", p.Status)
	}
}

func TestFactoryIsReproducible(t *testing.T) {
	a := fixture.NewFactory(42).Patient()
	b := fixture.NewFactory(42).Patient()
	if a != b {
		t.Fatalf("same seed must generate the same patient: %+v vs %+v", a, b)
	}
}

func TestFactoryDependentFixturesReferenceParents(t *testing.T) {
	f := fixture.NewFactory(7)
	p := f.Patient()
	prv := f.Provider()

	apt := f.Appointment(p.ID, prv.ID)
	if apt.PatientID != p.ID || apt.ProviderID != prv.ID {
		t.Fatalf("appointment must reference its parents: %+v", apt)
	}
	if !strings.HasPrefix(apt.ID, fixture.AppointmentPrefix) {
		t.Fatalf("appointment id %q missing prefix", apt.ID)
	}

	rec := f.MedicalRecord(p.ID, prv.ID)
	if !strings.HasPrefix(rec.ID, fixture.RecordPrefix) || rec.Diagnosis == "" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	med := f.Medication(p.ID, prv.ID)
	if !strings.HasPrefix(med.ID, fixture.MedicationPrefix) || med.Name == "" {
		t.Fatalf("unexpected medication: %+v", med)
	}
}

func TestFactoryUserCarriesMarker(t *testing.T) {
	u := fixture.NewFactory(7).User("")
	if !strings.HasPrefix(u.Username, fixture.Marker) {
		t.Fatalf("username %q must carry the cleanup marker", u.Username)
	}
	if u.Role == "" {
		t.Fatal("role must be populated")
	}
}
