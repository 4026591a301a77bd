package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
)

// Reserved identifier prefixes and the marker tag carried by every
// synthetic record, so cleanup scopes can find them.
const (
	PatientPrefix     = "PAT_"
	ProviderPrefix    = "PRV_"
	AppointmentPrefix = "APT_"
	RecordPrefix      = "MR_"
	MedicationPrefix  = "MED_"
	AllergyPrefix     = "ALG_"
	UserPrefix        = "USR_"
	Marker            = "TEST_AUTOMATION"
)

// Patient is a synthetic patient fixture.
type Patient struct {
	ID          string
	FirstName   string
	LastName    string
	MiddleName  string
	DateOfBirth string
	Gender      string
	SSN         string
	Phone       string
	Email       string
	Address     string
	City        string
	State       string
	ZipCode     string
	Status      string
}

// Provider is a synthetic care provider fixture.
type Provider struct {
	ID        string
	FirstName string
	LastName  string
	Specialty string
	NPI       string
}

// Appointment is a synthetic appointment fixture.
type Appointment struct {
	ID         string
	PatientID  string
	ProviderID string
	Type       string
	Date       time.Time
	Duration   int
	Status     string
	Notes      string
}

// MedicalRecord is a synthetic visit record fixture.
type MedicalRecord struct {
	ID             string
	PatientID      string
	ProviderID     string
	VisitDate      string
	ChiefComplaint string
	Diagnosis      string
	Treatment      string
}

// Medication is a synthetic prescription fixture.
type Medication struct {
	ID         string
	PatientID  string
	ProviderID string
	Name       string
	Dosage     string
	Frequency  string
	Status     string
}

// Allergy is a synthetic allergy fixture.
type Allergy struct {
	ID        string
	PatientID string
	Allergen  string
	Reaction  string
	Severity  string
}

// User is a synthetic application account fixture.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	ProviderID   string
}

// Factory generates realistic synthetic healthcare fixtures. A fixed seed
// makes generated data reproducible across runs.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a Factory seeded for reproducible output.
func NewFactory(seed uint64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

func (f *Factory) id(prefix string) string {
	return fmt.Sprintf("%s%08d", prefix, f.faker.Number(0, 99999999))
}

// Patient generates a patient fixture with all required demographic fields
// populated.
func (f *Factory) Patient() Patient {
	gender := f.faker.RandomString([]string{"M", "F", "O"})
	dob := f.faker.DateRange(
		time.Date(1935, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2007, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	addr := f.faker.Address()
	return Patient{
		ID:          f.id(PatientPrefix),
		FirstName:   f.faker.FirstName(),
		LastName:    f.faker.LastName(),
		MiddleName:  f.faker.FirstName(),
		DateOfBirth: dob.Format("2006-01-02"),
		Gender:      gender,
		SSN:         f.faker.SSN(),
		Phone:       f.faker.Phone(),
		Email:       f.faker.Email(),
		Address:     addr.Street,
		City:        addr.City,
		State:       addr.State,
		ZipCode:     addr.Zip,
		Status:      "ACTIVE",
	}
}

// Provider generates a provider fixture.
func (f *Factory) Provider() Provider {
	return Provider{
		ID:        f.id(ProviderPrefix),
		FirstName: f.faker.FirstName(),
		LastName:  f.faker.LastName(),
		Specialty: f.faker.RandomString([]string{
			"CARDIOLOGY", "PEDIATRICS", "ONCOLOGY", "FAMILY_MEDICINE", "NEUROLOGY",
		}),
		NPI: fmt.Sprintf("%010d", f.faker.Number(0, 999999999)),
	}
}

// Appointment generates an appointment fixture for the given patient and
// provider.
func (f *Factory) Appointment(patientID, providerID string) Appointment {
	return Appointment{
		ID:         f.id(AppointmentPrefix),
		PatientID:  patientID,
		ProviderID: providerID,
		Type: f.faker.RandomString([]string{
			"CONSULTATION", "FOLLOW_UP", "ROUTINE_CHECKUP", "PROCEDURE", "TELEMEDICINE",
		}),
		Date:     time.Now().UTC().Add(time.Duration(f.faker.Number(1, 30*24)) * time.Hour),
		Duration: f.faker.RandomInt([]int{15, 30, 45, 60, 90}),
		Status:   f.faker.RandomString([]string{"SCHEDULED", "CONFIRMED"}),
		Notes:    f.faker.LoremIpsumSentence(8),
	}
}

// MedicalRecord generates a visit record fixture.
func (f *Factory) MedicalRecord(patientID, providerID string) MedicalRecord {
	return MedicalRecord{
		ID:             f.id(RecordPrefix),
		PatientID:      patientID,
		ProviderID:     providerID,
		VisitDate:      f.faker.DateRange(time.Now().AddDate(-2, 0, 0), time.Now()).Format("2006-01-02"),
		ChiefComplaint: f.faker.LoremIpsumSentence(6),
		Diagnosis: f.faker.RandomString([]string{
			"Hypertension", "Diabetes Type 2", "Asthma", "COPD", "Arthritis", "Migraine",
		}),
		Treatment: f.faker.LoremIpsumSentence(10),
	}
}

// Medication generates a prescription fixture.
func (f *Factory) Medication(patientID, providerID string) Medication {
	return Medication{
		ID:         f.id(MedicationPrefix),
		PatientID:  patientID,
		ProviderID: providerID,
		Name: f.faker.RandomString([]string{
			"Lisinopril", "Metformin", "Albuterol", "Atorvastatin", "Omeprazole",
		}),
		Dosage:    fmt.Sprintf("%dmg", f.faker.RandomInt([]int{5, 10, 20, 40, 50})),
		Frequency: f.faker.RandomString([]string{"QD", "BID", "TID", "PRN"}),
		Status:    "ACTIVE",
	}
}

// Allergy generates an allergy fixture.
func (f *Factory) Allergy(patientID string) Allergy {
	return Allergy{
		ID:        f.id(AllergyPrefix),
		PatientID: patientID,
		Allergen:  f.faker.RandomString([]string{"Penicillin", "Latex", "Peanuts", "Sulfa"}),
		Reaction:  f.faker.RandomString([]string{"Rash", "Anaphylaxis", "Hives"}),
		Severity:  f.faker.RandomString([]string{"MILD", "MODERATE", "SEVERE"}),
	}
}

// User generates an application account fixture. The username carries the
// marker prefix so the cleaner's user pass finds it.
func (f *Factory) User(providerID string) User {
	return User{
		ID:           UserPrefix + uuid.New().String(),
		Username:     Marker + "_" + f.faker.Username(),
		PasswordHash: "",
		Role:         f.faker.RandomString([]string{"NURSE", "PHYSICIAN", "ADMIN", "AUDITOR"}),
		ProviderID:   providerID,
	}
}

// SeedPatient inserts a patient fixture and registers it in the scope.
func SeedPatient(ctx context.Context, q db.Queryer, p Patient, scope *Scope) error {
	_, err := q.Exec(ctx, `
		INSERT INTO patients (
			patient_id, first_name, last_name, middle_name, date_of_birth, gender,
			social_security_number, phone_number, email, address_line1, city, state,
			zip_code, status, created_by, created_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.MiddleName, p.DateOfBirth, p.Gender,
		p.SSN, p.Phone, p.Email, p.Address, p.City, p.State,
		p.ZipCode, p.Status, Marker, time.Now().UTC())
	if err != nil {
		return err
	}
	if scope != nil {
		scope.AddPatient(p.ID)
	}
	return nil
}

// SeedProvider inserts a provider fixture. Providers are shared reference
// data and are not part of the cleanup scope.
func SeedProvider(ctx context.Context, q db.Queryer, p Provider) error {
	_, err := q.Exec(ctx, `
		INSERT INTO providers (provider_id, first_name, last_name, specialty, npi_number)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.Specialty, p.NPI)
	return err
}

// SeedAppointment inserts an appointment fixture.
func SeedAppointment(ctx context.Context, q db.Queryer, a Appointment) error {
	_, err := q.Exec(ctx, `
		INSERT INTO appointments (
			appointment_id, patient_id, provider_id, appointment_type,
			appointment_date, duration_minutes, status, notes, created_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PatientID, a.ProviderID, a.Type, a.Date, a.Duration, a.Status, a.Notes, time.Now().UTC())
	return err
}

// SeedMedicalRecord inserts a visit record fixture.
func SeedMedicalRecord(ctx context.Context, q db.Queryer, r MedicalRecord) error {
	_, err := q.Exec(ctx, `
		INSERT INTO medical_records (
			record_id, patient_id, provider_id, visit_date, chief_complaint,
			diagnosis, treatment, created_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PatientID, r.ProviderID, r.VisitDate, r.ChiefComplaint,
		r.Diagnosis, r.Treatment, time.Now().UTC())
	return err
}

// SeedMedication inserts a prescription fixture.
func SeedMedication(ctx context.Context, q db.Queryer, m Medication) error {
	_, err := q.Exec(ctx, `
		INSERT INTO medications (medication_id, patient_id, provider_id, medication_name, dosage, frequency, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.PatientID, m.ProviderID, m.Name, m.Dosage, m.Frequency, m.Status)
	return err
}

// SeedAllergy inserts an allergy fixture.
func SeedAllergy(ctx context.Context, q db.Queryer, a Allergy) error {
	_, err := q.Exec(ctx, `
		INSERT INTO patient_allergies (allergy_id, patient_id, allergen, reaction, severity)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.PatientID, a.Allergen, a.Reaction, a.Severity)
	return err
}

// SeedUser inserts an application account fixture.
func SeedUser(ctx context.Context, q db.Queryer, u User) error {
	var providerID any
	if u.ProviderID != "" {
		providerID = u.ProviderID
	}
	_, err := q.Exec(ctx, `
		INSERT INTO users (user_id, username, password_hash, role, provider_id, created_by, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Role, providerID, Marker, time.Now().UTC())
	return err
}
