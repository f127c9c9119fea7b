package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"thumbnail-editor-backend/internal/middleware"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/services"
)

// respondError maps service errors onto status codes and the JSON error body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := models.ErrorResponse{Error: "internal error", Message: err.Error()}

	switch {
	case services.IsValidation(err):
		status = http.StatusBadRequest
		body.Error = "invalid request"
	case errors.Is(err, services.ErrProjectNotFound):
		status = http.StatusNotFound
		body.Error = "project not found"
	case errors.Is(err, services.ErrEditNotFound):
		status = http.StatusNotFound
		body.Error = "edit not found"
	case errors.Is(err, services.ErrEditInProgress):
		status = http.StatusConflict
		body.Error = "edit in progress"
	case services.IsUpstream(err):
		status = http.StatusBadGateway
		body.Error = "upstream failure"
	}

	_ = c.Error(err)
	c.JSON(status, body)
}

// requireUser reads the authenticated user, answering 401 when absent.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
