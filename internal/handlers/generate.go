package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"thumbnail-editor-backend/internal/imagegen"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/services"
)

// GenerateHandler serves the stateless generate-image route the editor page
// calls. Its body and error shapes are camelCase and flat.
type GenerateHandler struct {
	edits *services.EditService
}

func NewGenerateHandler(edits *services.EditService) *GenerateHandler {
	return &GenerateHandler{edits: edits}
}

// GenerateImage godoc
// @Summary     Generate or edit an image
// @Description Runs the prompt through the image model. With imageData the image is edited, otherwise one is generated from text.
// @Tags        generate
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.GenerateImageRequest true "Prompt and optional image"
// @Success     200 {object} models.GenerateImageResponse
// @Failure     400 {object} models.GenerateImageErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.GenerateImageErrorResponse
// @Router      /generate-image [post]
func (h *GenerateHandler) GenerateImage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.GenerateImageErrorResponse{Error: "Prompt is required"})
		return
	}

	result, err := h.edits.Generate(c.Request.Context(), userID, req.Prompt, req.ImageData)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, models.GenerateImageErrorResponse{Error: "Prompt is required"})
		return
	case errors.Is(err, imagegen.ErrNoImage):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.GenerateImageErrorResponse{Error: "No image generated"})
		return
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.GenerateImageErrorResponse{
			Error:   "Failed to generate image",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.GenerateImageResponse{
		ImageURL: result.ImageURL,
		Prompt:   req.Prompt,
	})
}
