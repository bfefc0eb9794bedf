package templates

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizdeck/backend/internal/models"
	"github.com/quizdeck/backend/pkg/response"
)

// Store is the template persistence needed by the handler.
type Store interface {
	Create(ctx context.Context, t *models.Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	List(ctx context.Context) ([]models.Template, error)
}

// QuestionInput is one question in a template creation request. Order in the
// slice determines position.
type QuestionInput struct {
	Text     string   `json:"text" binding:"required"`
	Type     string   `json:"type" binding:"required"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
}

// CreateRequest is the body for POST /templates.
type CreateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions" binding:"required,min=1"`
}

// Handler handles template HTTP endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a templates handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /templates (organizer only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for i, in := range req.Questions {
		qt := models.QuestionType(in.Type)
		if !qt.Valid() {
			response.BadRequest(c, fmt.Sprintf("question %d: unknown type %q", i, in.Type))
			return
		}
		if qt.IsChoice() && len(in.Options) == 0 {
			response.BadRequest(c, fmt.Sprintf("question %d: %s questions need at least one option", i, in.Type))
			return
		}
		if !qt.IsChoice() && len(in.Options) > 0 {
			response.BadRequest(c, fmt.Sprintf("question %d: text questions cannot have options", i))
			return
		}
		questions = append(questions, models.Question{
			Text:     in.Text,
			Type:     qt,
			Options:  in.Options,
			Required: in.Required,
		})
	}

	t := &models.Template{
		Name:        req.Name,
		Description: req.Description,
		Questions:   questions,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		h.logger.Error("create template failed", zap.Error(err))
		response.Internal(c, "failed to create template")
		return
	}
	response.Created(c, t)
}

// List handles GET /templates (organizer only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list templates failed", zap.Error(err))
		response.Internal(c, "failed to list templates")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /templates/:id (organizer only).
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "template not found")
		return
	}
	response.OK(c, t)
}
