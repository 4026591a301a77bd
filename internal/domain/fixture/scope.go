// Package fixture creates and removes the synthetic records a test run
// leaves behind: a gofakeit-backed factory on the way in, and an ordered,
// idempotent cleaner across the table dependency graph on the way out.
package fixture

// Scope identifies the synthetic fixtures one test run owns. It is
// assembled incrementally as fixtures are created and consumed once at
// teardown.
type Scope struct {
	// PatientIDs are exact patient identifiers to purge.
	PatientIDs []string
	// Prefixes match any patient identifier starting with one of them.
	Prefixes []string
	// UserMarker matches synthetic user accounts by username prefix and
	// created_by tag.
	UserMarker string
}

// AddPatient records one fixture patient for teardown. Duplicates are
// tolerated; cleanup is idempotent anyway.
func (s *Scope) AddPatient(id string) {
	if id == "" {
		return
	}
	s.PatientIDs = append(s.PatientIDs, id)
}

// AddPrefix records an identifier prefix covering a family of fixtures.
func (s *Scope) AddPrefix(prefix string) {
	if prefix == "" {
		return
	}
	s.Prefixes = append(s.Prefixes, prefix)
}

// Empty reports whether the scope identifies nothing.
func (s Scope) Empty() bool {
	return len(s.PatientIDs) == 0 && len(s.Prefixes) == 0 && s.UserMarker == ""
}
