package presentations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/live"
	"github.com/pulsedeck/backend/internal/middleware"
	"github.com/pulsedeck/backend/internal/models"
	"github.com/pulsedeck/backend/pkg/response"
)

// CreateRequest is the body for POST /presentations.
type CreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// UpdateRequest is the body for PATCH /presentations/:id.
type UpdateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// Handler handles presentation HTTP endpoints.
type Handler struct {
	repo     *Repository
	audience *live.Audience
}

// NewHandler creates a presentations handler.
func NewHandler(repo *Repository, audience *live.Audience) *Handler {
	return &Handler{repo: repo, audience: audience}
}

// Create handles POST /presentations.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p := &models.Presentation{OwnerID: userID, Title: req.Title, Description: req.Description}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to create presentation")
		return
	}
	response.Created(c, p)
}

// List handles GET /presentations (own presentations only).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	list, err := h.repo.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list presentations")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /presentations/:id (owner only).
func (h *Handler) GetByID(c *gin.Context) {
	p, ok := h.authorize(c)
	if !ok {
		return
	}
	response.OK(c, p)
}

// Update handles PATCH /presentations/:id (owner only).
func (h *Handler) Update(c *gin.Context) {
	p, ok := h.authorize(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.Update(c.Request.Context(), p.ID, req.Title, req.Description); err != nil {
		response.Internal(c, "failed to update presentation")
		return
	}
	response.OK(c, gin.H{"id": p.ID, "updated": true})
}

// Delete handles DELETE /presentations/:id (owner only).
func (h *Handler) Delete(c *gin.Context) {
	p, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), p.ID); err != nil {
		response.Internal(c, "failed to delete presentation")
		return
	}
	response.NoContent(c)
}

// Status handles GET /presentations/:id/live (public). Unknown presentations
// get a default not-live snapshot, so polling cannot probe for existence.
func (h *Handler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid presentation id")
		return
	}
	response.OK(c, h.audience.Status(id))
}

// authorize parses :id, loads the presentation and checks ownership.
// Not-owned presentations report as not found.
func (h *Handler) authorize(c *gin.Context) (*models.Presentation, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid presentation id")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || p.OwnerID != userID {
		response.NotFound(c, "presentation not found")
		return nil, false
	}
	return p, true
}
