package handler

import (
	cascadeapp "github.com/crm/backend/internal/application/cascade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CascadeHandler exposes soft-delete and restore cascades over any
// entity in the business graph
type CascadeHandler struct {
	BaseHandler
	cascadeService *cascadeapp.Service
}

// NewCascadeHandler creates a new CascadeHandler
func NewCascadeHandler(cascadeService *cascadeapp.Service) *CascadeHandler {
	return &CascadeHandler{cascadeService: cascadeService}
}

// RegisterRoutes registers the cascade routes
func (h *CascadeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	entities := rg.Group("/entities")
	entities.DELETE("/:kind/:id", h.Delete)
	entities.POST("/:kind/:id/restore", h.Restore)
}

// Delete tombstones the entity and everything reachable beneath it
func (h *CascadeHandler) Delete(c *gin.Context) {
	kind, id, actor, ok := h.bindCascadeParams(c)
	if !ok {
		return
	}

	result, err := h.cascadeService.Delete(c.Request.Context(), kind, id, actor)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Restore brings the entity and its tombstoned subtree back
func (h *CascadeHandler) Restore(c *gin.Context) {
	kind, id, actor, ok := h.bindCascadeParams(c)
	if !ok {
		return
	}

	result, err := h.cascadeService.Restore(c.Request.Context(), kind, id, actor)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *CascadeHandler) bindCascadeParams(c *gin.Context) (kind string, id uuid.UUID, actor uuid.UUID, ok bool) {
	kind = c.Param("kind")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entity ID")
		return "", uuid.Nil, uuid.Nil, false
	}

	actor, err = getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid X-User-ID header")
		return "", uuid.Nil, uuid.Nil, false
	}

	return kind, id, actor, true
}
