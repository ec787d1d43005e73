package questions

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/middleware"
	"github.com/pulsedeck/backend/internal/models"
	"github.com/pulsedeck/backend/internal/presentations"
	"github.com/pulsedeck/backend/pkg/response"
)

// CreateRequest is the body for POST /presentations/:id/questions.
type CreateRequest struct {
	Text          string          `json:"text" binding:"required"`
	Type          string          `json:"type" binding:"required,oneof=single_choice multi_choice open_text word_cloud rating"`
	Configuration json.RawMessage `json:"configuration"`
}

// Handler handles question HTTP endpoints.
type Handler struct {
	repo             *Repository
	presentationRepo *presentations.Repository
}

// NewHandler creates a questions handler.
func NewHandler(repo *Repository, presentationRepo *presentations.Repository) *Handler {
	return &Handler{repo: repo, presentationRepo: presentationRepo}
}

// Create handles POST /presentations/:id/questions (owner only).
func (h *Handler) Create(c *gin.Context) {
	presentationID, ok := h.authorizePresentation(c)
	if !ok {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q := &models.Question{
		PresentationID: presentationID,
		Text:           req.Text,
		Type:           req.Type,
		Configuration:  req.Configuration,
	}
	if err := h.repo.Create(c.Request.Context(), q); err != nil {
		response.Internal(c, "failed to create question")
		return
	}
	response.Created(c, q)
}

// ListByPresentation handles GET /presentations/:id/questions (owner only).
func (h *Handler) ListByPresentation(c *gin.Context) {
	presentationID, ok := h.authorizePresentation(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByPresentation(c.Request.Context(), presentationID)
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /questions/:id (owner only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	q, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	p, err := h.presentationRepo.GetByID(c.Request.Context(), q.PresentationID)
	if err != nil || p.OwnerID != userID {
		response.NotFound(c, "question not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete question")
		return
	}
	response.NoContent(c)
}

func (h *Handler) authorizePresentation(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid presentation id")
		return uuid.Nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	p, err := h.presentationRepo.GetByID(c.Request.Context(), id)
	if err != nil || p.OwnerID != userID {
		response.NotFound(c, "presentation not found")
		return uuid.Nil, false
	}
	return id, true
}
