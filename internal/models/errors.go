package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when no session matches the given id or code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTemplateNotFound is returned when the referenced template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNotAcceptingResponses is returned when a submission hits a session
	// whose stored status is not unlocked. Expected and user-facing.
	ErrNotAcceptingResponses = errors.New("session is not accepting responses")
	// ErrSessionCompleted is returned when a status change is requested out of
	// the terminal completed state.
	ErrSessionCompleted = errors.New("session is completed")
	// ErrCodeGenerationExhausted is returned when the join-code generator runs
	// out of attempts. Should not occur in practice given the code space size.
	ErrCodeGenerationExhausted = errors.New("failed to generate unique code")
	// ErrInvalidCredentials is returned on a failed organizer login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// IncompleteAnswersError reports required questions left unanswered at
// submission time, naming the missing question IDs.
type IncompleteAnswersError struct {
	Missing []uuid.UUID
}

func (e *IncompleteAnswersError) Error() string {
	return fmt.Sprintf("%d required question(s) unanswered", len(e.Missing))
}
