package responses

import (
	"strings"

	"github.com/google/uuid"

	"github.com/quizdeck/backend/internal/models"
)

// ValidateAdmission decides whether a submission against the given session is
// accepted. The stored status is the sole gate: locked and completed sessions
// reject every submission, including ones from participants who started
// before the state changed. Required questions must each have a non-empty
// answer; all other answer content is accepted as-is.
func ValidateAdmission(session *models.Session, questions []models.Question, answers map[string]string) error {
	if session.Status != models.StatusUnlocked {
		return models.ErrNotAcceptingResponses
	}
	if missing := MissingRequired(questions, answers); len(missing) > 0 {
		return &models.IncompleteAnswersError{Missing: missing}
	}
	return nil
}

// MissingRequired returns the IDs of required questions without a non-blank
// answer, in position order.
func MissingRequired(questions []models.Question, answers map[string]string) []uuid.UUID {
	var missing []uuid.UUID
	for _, q := range questions {
		if !q.Required {
			continue
		}
		if strings.TrimSpace(answers[q.ID.String()]) == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
