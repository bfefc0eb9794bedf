package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the organizer-controlled lifecycle state of a session.
type SessionStatus string

const (
	StatusLocked    SessionStatus = "locked"
	StatusUnlocked  SessionStatus = "unlocked"
	StatusCompleted SessionStatus = "completed"
)

// Valid reports whether s is a known status value.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusLocked, StatusUnlocked, StatusCompleted:
		return true
	}
	return false
}

// Session is a running instance of a quiz, reachable by a short join code.
// Status and UnlockTime are deliberately independent signals: a scheduled
// unlock never flips the stored status server-side; clients compare
// UnlockTime against wall clock to decide what to present, while submission
// admission consults the stored status only.
type Session struct {
	ID               uuid.UUID     `json:"id"`
	Code             string        `json:"code"`
	TemplateID       uuid.UUID     `json:"template_id"`
	Status           SessionStatus `json:"status"`
	UnlockTime       *time.Time    `json:"unlock_time,omitempty"`
	TimeLimitMinutes *int          `json:"time_limit_minutes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`

	// TemplateName and ResponseCount are filled on list views only.
	TemplateName  string `json:"template_name,omitempty"`
	ResponseCount int    `json:"response_count"`
}

// UnlockPending reports whether the scheduled unlock time is still in the
// future. Presentation hint only; it does not affect admission.
func (s *Session) UnlockPending(now time.Time) bool {
	return s.UnlockTime != nil && s.UnlockTime.After(now)
}

// SessionWithTemplate is the participant-facing read of a session joined with
// its template and ordered questions.
type SessionWithTemplate struct {
	Session
	Template Template `json:"template"`
}
