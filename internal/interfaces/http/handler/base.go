package handler

import (
	"net/http"

	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID set by the RequestID middleware
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getActorID extracts the acting user from the X-User-ID header.
// Authorization happens upstream; an absent header means anonymous.
func getActorID(c *gin.Context) (uuid.UUID, error) {
	actor := c.GetHeader("X-User-ID")
	if actor == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(actor)
}

// Success sends a 200 success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data).WithRequestID(getRequestID(c)))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data).WithRequestID(getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message).WithRequestID(getRequestID(c)))
}

// DomainError sends an error response with the status derived from the
// domain error code
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	status, resp := dto.FromError(err)
	c.JSON(status, resp.WithRequestID(getRequestID(c)))
}
