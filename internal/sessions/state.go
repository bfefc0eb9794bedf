package sessions

import (
	"fmt"
	"time"

	"github.com/quizdeck/backend/internal/models"
)

// InitialStatus determines the status a session is created with: locked when
// an unlock timestamp is supplied, unlocked otherwise.
func InitialStatus(unlockTime *time.Time) models.SessionStatus {
	if unlockTime != nil {
		return models.StatusLocked
	}
	return models.StatusUnlocked
}

// UpdatePatch is a partial session update. Only fields explicitly provided by
// the caller change; SetUnlockTime / SetTimeLimit distinguish "absent" from
// "set to null" (a nil value with the flag set clears the field).
type UpdatePatch struct {
	Status *models.SessionStatus

	SetUnlockTime bool
	UnlockTime    *time.Time

	SetTimeLimit bool
	TimeLimit    *int
}

// Apply mutates s according to the patch, validating the status transition.
// Completed is terminal: no status change leads out of it (a no-op
// completed -> completed request is tolerated). Unlock time and time limit
// may change independently of status.
func Apply(s *models.Session, p UpdatePatch) error {
	if p.Status != nil {
		next := *p.Status
		if !next.Valid() {
			return fmt.Errorf("unknown status %q", next)
		}
		if s.Status == models.StatusCompleted && next != models.StatusCompleted {
			return models.ErrSessionCompleted
		}
		s.Status = next
	}
	if p.SetUnlockTime {
		s.UnlockTime = p.UnlockTime
	}
	if p.SetTimeLimit {
		s.TimeLimitMinutes = p.TimeLimit
	}
	return nil
}
