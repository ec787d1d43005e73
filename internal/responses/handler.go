package responses

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/middleware"
	"github.com/pulsedeck/backend/internal/presentations"
	"github.com/pulsedeck/backend/internal/questions"
	"github.com/pulsedeck/backend/pkg/response"
)

// Handler serves the presenter's results view.
type Handler struct {
	repo             *Repository
	questionRepo     *questions.Repository
	presentationRepo *presentations.Repository
}

// NewHandler creates a responses handler.
func NewHandler(repo *Repository, questionRepo *questions.Repository, presentationRepo *presentations.Repository) *Handler {
	return &Handler{repo: repo, questionRepo: questionRepo, presentationRepo: presentationRepo}
}

// ListByQuestion handles GET /questions/:id/responses (owner only).
func (h *Handler) ListByQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	q, err := h.questionRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	p, err := h.presentationRepo.GetByID(c.Request.Context(), q.PresentationID)
	if err != nil || p.OwnerID != userID {
		response.NotFound(c, "question not found")
		return
	}

	list, err := h.repo.ListByQuestion(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list responses")
		return
	}
	response.OK(c, list)
}

// Participation handles GET /presentations/:id/participation (owner only):
// distinct responding devices across the presentation.
func (h *Handler) Participation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid presentation id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	p, err := h.presentationRepo.GetByID(c.Request.Context(), id)
	if err != nil || p.OwnerID != userID {
		response.NotFound(c, "presentation not found")
		return
	}

	n, err := h.repo.CountDistinctSessions(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to count participation")
		return
	}
	response.OK(c, gin.H{"presentation_id": id, "distinct_sessions": n})
}
