package responses

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizdeck/backend/internal/models"
	"github.com/quizdeck/backend/pkg/response"
)

// SessionStore resolves sessions at submission time. The read happens at the
// instant of submission; a submission racing a lock transition may observe
// either status.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

// QuestionStore lists a template's questions for required-answer checks.
type QuestionStore interface {
	ListQuestions(ctx context.Context, templateID uuid.UUID) ([]models.Question, error)
}

// Store persists accepted responses.
type Store interface {
	Create(ctx context.Context, resp *models.Response) error
}

// SubmitRequest is the body for POST /quiz/submit.
type SubmitRequest struct {
	SessionID        string            `json:"session_id" binding:"required,uuid"`
	ParticipantName  string            `json:"participant_name" binding:"required"`
	ParticipantEmail *string           `json:"participant_email"`
	ParticipantPhone *string           `json:"participant_phone"`
	Answers          map[string]string `json:"answers" binding:"required"`
	TimeSpentSeconds *int              `json:"time_spent_seconds"`
}

// Handler handles the public submission endpoint.
type Handler struct {
	store     Store
	sessions  SessionStore
	questions QuestionStore
	logger    *zap.Logger
}

// NewHandler creates a responses handler.
func NewHandler(store Store, sessions SessionStore, questions QuestionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, sessions: sessions, questions: questions, logger: logger}
}

// Submit handles POST /quiz/submit (public). Validation short-circuits in
// order: input presence, session existence, stored status, required-answer
// completeness. Duplicate submissions from the same participant each produce
// a distinct response.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.BadRequest(c, "invalid session_id")
		return
	}

	ctx := c.Request.Context()
	session, err := h.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("get session failed", zap.Error(err))
		response.Internal(c, "failed to submit response")
		return
	}

	questions, err := h.questions.ListQuestions(ctx, session.TemplateID)
	if err != nil {
		h.logger.Error("list questions failed", zap.Error(err))
		response.Internal(c, "failed to submit response")
		return
	}

	if err := ValidateAdmission(session, questions, req.Answers); err != nil {
		var incomplete *models.IncompleteAnswersError
		switch {
		case errors.Is(err, models.ErrNotAcceptingResponses):
			response.Forbidden(c, "session is not accepting responses")
		case errors.As(err, &incomplete):
			response.BadRequest(c, fmt.Sprintf("%s: %s", incomplete.Error(), formatIDs(incomplete.Missing)))
		default:
			response.BadRequest(c, err.Error())
		}
		return
	}

	resp := &models.Response{
		SessionID:        sessionID,
		ParticipantName:  req.ParticipantName,
		ParticipantEmail: req.ParticipantEmail,
		ParticipantPhone: req.ParticipantPhone,
		Answers:          req.Answers,
		TimeSpentSeconds: req.TimeSpentSeconds,
	}
	if err := h.store.Create(ctx, resp); err != nil {
		h.logger.Error("create response failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to submit response")
		return
	}
	response.Created(c, resp)
}

func formatIDs(ids []uuid.UUID) string {
	out := make([]byte, 0, len(ids)*37)
	for i, id := range ids {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, id.String()...)
	}
	return string(out)
}
