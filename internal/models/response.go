package models

import (
	"time"

	"github.com/google/uuid"
)

// Response is one participant's full set of answers for a session. Answers
// map question IDs to answer text; all answers are strings regardless of
// question type. Responses are insert-only and never deduplicated by
// participant identity.
type Response struct {
	ID               uuid.UUID         `json:"id"`
	SessionID        uuid.UUID         `json:"session_id"`
	ParticipantName  string            `json:"participant_name"`
	ParticipantEmail *string           `json:"participant_email,omitempty"`
	ParticipantPhone *string           `json:"participant_phone,omitempty"`
	Answers          map[string]string `json:"answers"`
	TimeSpentSeconds *int              `json:"time_spent_seconds,omitempty"`
	SubmittedAt      time.Time         `json:"submitted_at"`
}
