package hipaa

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
)

// Action is a sensitive operation recorded in the audit trail.
type Action string

const (
	ActionLogin  Action = "LOGIN"
	ActionLogout Action = "LOGOUT"
	ActionRead   Action = "READ"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ParseAction maps free-form input to an Action, rejecting anything outside
// the closed set.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case ActionLogin, ActionLogout, ActionRead, ActionCreate, ActionUpdate, ActionDelete:
		return a, nil
	}
	return "", errs.Validation("unknown audit action %q", s)
}

// DefaultRecencyWindow is the window the CLI uses when none is given. Five
// minutes is wide enough to cover a slow UI step and narrow enough to keep
// reused synthetic ids from matching rows left by earlier runs.
const DefaultRecencyWindow = 5 * time.Minute

// Event is a read-only view over one audit_trail row.
type Event struct {
	SubjectID string
	ActorID   string
	Action    Action
	OldValue  string
	NewValue  string
	Recorded  time.Time
}

// Verifier checks that sensitive actions produced audit-trail evidence.
// Absence of the audit mechanism itself is a compliance failure, never a
// plain "not found".
type Verifier struct {
	exec   db.Queryer
	logger zerolog.Logger
	// now is swapped in tests to pin the window edge.
	now func() time.Time
}

// NewVerifier creates a Verifier over an open connection.
func NewVerifier(exec db.Queryer, logger zerolog.Logger) *Verifier {
	return &Verifier{
		exec:   exec,
		logger: logger.With().Str("component", "audit").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Verify reports whether at least one audit row matches subject, action,
// and actor with a timestamp inside [now-window, now]. Rows outside the
// window are treated as not found, never as found-but-stale. Any failure to
// reach the audit table is a security error.
func (v *Verifier) Verify(ctx context.Context, subjectID string, action Action, actorID string, window time.Duration) (bool, error) {
	if subjectID == "" {
		return false, errs.Validation("audit subject id must not be empty")
	}
	if actorID == "" {
		return false, errs.Validation("audit actor id must not be empty")
	}
	if _, err := ParseAction(string(action)); err != nil {
		return false, err
	}
	if window <= 0 {
		return false, errs.Validation("audit recency window must be positive")
	}

	threshold := v.now().Add(-window)
	rows, err := v.exec.Query(ctx, `
		SELECT COUNT(*) AS n
		FROM audit_trail
		WHERE patient_id = ?
		  AND action = ?
		  AND user_id = ?
		  AND created_date >= ?`,
		subjectID, string(action), actorID, threshold)
	if err != nil {
		return false, errs.Wrap(errs.KindSecurity, err, "audit trail verification failed for %s on %s", action, subjectID)
	}

	found := len(rows) > 0 && rows[0].Int("n") > 0
	v.logger.Debug().
		Str("subject", subjectID).
		Str("action", string(action)).
		Str("actor", actorID).
		Dur("window", window).
		Bool("found", found).
		Msg("audit trail checked")
	return found, nil
}

// RecordEvent writes a synthetic audit row. The harness uses it to simulate
// the application's audit writes; tests use it to stage evidence.
func (v *Verifier) RecordEvent(ctx context.Context, ev Event) error {
	if ev.ActorID == "" {
		return errs.Validation("audit actor id must not be empty")
	}
	if _, err := ParseAction(string(ev.Action)); err != nil {
		return err
	}
	recorded := ev.Recorded
	if recorded.IsZero() {
		recorded = v.now()
	}

	var subject any
	if ev.SubjectID != "" {
		subject = ev.SubjectID
	}
	_, err := v.exec.Exec(ctx, `
		INSERT INTO audit_trail (patient_id, user_id, action, old_value, new_value, created_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		subject, ev.ActorID, string(ev.Action), ev.OldValue, ev.NewValue, recorded)
	if err != nil {
		return errs.Wrap(errs.KindSecurity, err, "record audit event")
	}
	return nil
}

// LatestEvents returns the most recent audit rows for a subject, newest
// first, for failure diagnostics.
func (v *Verifier) LatestEvents(ctx context.Context, subjectID string, limit int) ([]Event, error) {
	if subjectID == "" {
		return nil, errs.Validation("audit subject id must not be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := v.exec.Query(ctx, `
		SELECT patient_id, user_id, action, old_value, new_value, created_date
		FROM audit_trail
		WHERE patient_id = ?
		ORDER BY created_date DESC
		LIMIT ?`,
		subjectID, limit)
	if err != nil {
		return nil, errs.Wrap(errs.KindSecurity, err, "read audit trail for %s", subjectID)
	}

	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, Event{
			SubjectID: row.String("patient_id"),
			ActorID:   row.String("user_id"),
			Action:    Action(row.String("action")),
			OldValue:  row.String("old_value"),
			NewValue:  row.String("new_value"),
			Recorded:  row.Time("created_date"),
		})
	}
	return events, nil
}
