package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/quizdeck/backend/internal/models"
	"github.com/quizdeck/backend/pkg/response"
)

// createMaxRetries bounds retries when a concurrent creation wins the race
// for a code despite the generator's pre-check (unique_violation on insert).
const createMaxRetries = 3

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Store is the session persistence needed by the handler.
type Store interface {
	Create(ctx context.Context, s *models.Session) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	GetByCode(ctx context.Context, code string) (*models.Session, error)
	List(ctx context.Context) ([]models.Session, error)
	Update(ctx context.Context, s *models.Session) error
}

// TemplateStore resolves templates with their questions.
type TemplateStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
}

// ResponseLister lists responses of a session for the organizer detail view.
type ResponseLister interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Response, error)
}

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	TemplateID       string `json:"template_id" binding:"required,uuid"`
	TimeLimitMinutes *int   `json:"time_limit_minutes"`
	UnlockTime       *string `json:"unlock_time"` // RFC3339
}

// UpdateRequest is the body for PATCH /sessions/:id. RawMessage fields
// distinguish absent (nil) from explicit null (clears the value).
type UpdateRequest struct {
	Status           *string         `json:"status"`
	UnlockTime       json.RawMessage `json:"unlock_time"`
	TimeLimitMinutes json.RawMessage `json:"time_limit_minutes"`
}

// Handler handles session HTTP endpoints.
type Handler struct {
	store     Store
	templates TemplateStore
	responses ResponseLister
	cache     *Cache
	logger    *zap.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(store Store, templates TemplateStore, responses ResponseLister, cache *Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, templates: templates, responses: responses, cache: cache, logger: logger}
}

// Create handles POST /sessions (organizer only). Issues a join code and
// applies the initial-status rule.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		response.BadRequest(c, "invalid template_id")
		return
	}
	if req.TimeLimitMinutes != nil && *req.TimeLimitMinutes <= 0 {
		response.BadRequest(c, "time_limit_minutes must be positive")
		return
	}
	var unlockTime *time.Time
	if req.UnlockTime != nil {
		t, err := time.Parse(time.RFC3339, *req.UnlockTime)
		if err != nil {
			response.BadRequest(c, "invalid unlock_time")
			return
		}
		unlockTime = &t
	}

	ctx := c.Request.Context()
	template, err := h.templates.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, models.ErrTemplateNotFound) {
			response.NotFound(c, "template not found")
			return
		}
		h.logger.Error("load template failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}

	var session *models.Session
	for attempt := 0; ; attempt++ {
		code, err := GenerateUniqueCode(ctx, h.store.CodeExists)
		if err != nil {
			h.logger.Error("code generation failed", zap.Error(err))
			response.Internal(c, "failed to generate join code")
			return
		}
		s := &models.Session{
			Code:             code,
			TemplateID:       templateID,
			Status:           InitialStatus(unlockTime),
			UnlockTime:       unlockTime,
			TimeLimitMinutes: req.TimeLimitMinutes,
		}
		err = h.store.Create(ctx, s)
		if err == nil {
			session = s
			break
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && attempt < createMaxRetries {
			continue
		}
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}

	response.Created(c, models.SessionWithTemplate{Session: *session, Template: *template})
}

// List handles GET /sessions (organizer only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /sessions/:id (organizer only). Includes template,
// questions and responses, newest response first.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	ctx := c.Request.Context()
	session, err := h.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("get session failed", zap.Error(err))
		response.Internal(c, "failed to fetch session")
		return
	}
	template, err := h.templates.GetByID(ctx, session.TemplateID)
	if err != nil {
		h.logger.Error("load template failed", zap.Error(err))
		response.Internal(c, "failed to fetch session")
		return
	}
	resps, err := h.responses.ListBySession(ctx, id)
	if err != nil {
		h.logger.Error("list responses failed", zap.Error(err))
		response.Internal(c, "failed to fetch session")
		return
	}
	response.OK(c, gin.H{
		"session":   session,
		"template":  template,
		"responses": resps,
	})
}

// Update handles PATCH /sessions/:id (organizer only). Partial update: only
// provided fields change; explicit null clears unlock_time / time_limit.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	patch := UpdatePatch{}
	if req.Status != nil {
		status := models.SessionStatus(*req.Status)
		if !status.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
		patch.Status = &status
	}
	if req.UnlockTime != nil {
		patch.SetUnlockTime = true
		if !isJSONNull(req.UnlockTime) {
			var raw string
			if err := json.Unmarshal(req.UnlockTime, &raw); err != nil {
				response.BadRequest(c, "invalid unlock_time")
				return
			}
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				response.BadRequest(c, "invalid unlock_time")
				return
			}
			patch.UnlockTime = &t
		}
	}
	if req.TimeLimitMinutes != nil {
		patch.SetTimeLimit = true
		if !isJSONNull(req.TimeLimitMinutes) {
			var limit int
			if err := json.Unmarshal(req.TimeLimitMinutes, &limit); err != nil {
				response.BadRequest(c, "invalid time_limit_minutes")
				return
			}
			if limit <= 0 {
				response.BadRequest(c, "time_limit_minutes must be positive")
				return
			}
			patch.TimeLimit = &limit
		}
	}

	ctx := c.Request.Context()
	session, err := h.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("get session failed", zap.Error(err))
		response.Internal(c, "failed to update session")
		return
	}

	if err := Apply(session, patch); err != nil {
		if errors.Is(err, models.ErrSessionCompleted) {
			response.Conflict(c, "completed sessions cannot change status")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.store.Update(ctx, session); err != nil {
		h.logger.Error("update session failed", zap.Error(err))
		response.Internal(c, "failed to update session")
		return
	}
	h.cache.Invalidate(ctx, session.Code)
	response.OK(c, session)
}

// GetQuizByCode handles GET /quiz/:code (public). Serves the poll path for
// participants; cached with a short TTL.
func (h *Handler) GetQuizByCode(c *gin.Context) {
	code := c.Param("code")
	if len(code) != CodeLength {
		response.NotFound(c, "session not found")
		return
	}
	ctx := c.Request.Context()

	if view := h.cache.Get(ctx, code); view != nil {
		response.OK(c, view)
		return
	}

	session, err := h.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("get session by code failed", zap.Error(err))
		response.Internal(c, "failed to fetch quiz")
		return
	}
	template, err := h.templates.GetByID(ctx, session.TemplateID)
	if err != nil {
		h.logger.Error("load template failed", zap.Error(err))
		response.Internal(c, "failed to fetch quiz")
		return
	}

	view := &models.SessionWithTemplate{Session: *session, Template: *template}
	h.cache.Set(ctx, view)
	response.OK(c, view)
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
