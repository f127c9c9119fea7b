package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/services"
)

type EditsHandler struct {
	edits    *services.EditService
	history  *services.HistoryService
	projects *services.ProjectService
}

func NewEditsHandler(edits *services.EditService, history *services.HistoryService, projects *services.ProjectService) *EditsHandler {
	return &EditsHandler{
		edits:    edits,
		history:  history,
		projects: projects,
	}
}

// SubmitEdit godoc
// @Summary     Apply a prompt to the project image
// @Description Sends the current image and the prompt to the image model and appends the result to the project history. When the image was produced but could not be saved, persisted is false and warning explains why.
// @Tags        edits
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.SubmitEditRequest true "Prompt and optional working image"
// @Success     200 {object} models.SubmitEditResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{project_id}/edits [post]
func (h *EditsHandler) SubmitEdit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.SubmitEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	result, err := h.edits.Submit(c.Request.Context(), userID, projectID, req.Prompt, req.ImageData)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.SubmitEditResponse{
		ImageURL:  result.ImageURL,
		Prompt:    result.Prompt,
		Persisted: result.Persisted,
		Warning:   result.PersistError,
	}
	if result.Edit != nil {
		edit := toEditResponse(result.Edit)
		resp.Edit = &edit
	}
	c.JSON(http.StatusOK, resp)
}

// ListEdits godoc
// @Summary     List edits
// @Description Returns the project's edits ordered by edit number
// @Tags        edits
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.EditListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/edits [get]
func (h *EditsHandler) ListEdits(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}

	edits, err := h.projects.ListEdits(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.EditListResponse{Edits: toEditResponses(edits)})
}

// DeleteEdit godoc
// @Summary     Delete an edit
// @Description Removes one edit from the history. Other edit numbers are unchanged.
// @Tags        edits
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       edit_id path string true "Edit ID (UUID)"
// @Success     200 {object} models.MessageResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/edits/{edit_id} [delete]
func (h *EditsHandler) DeleteEdit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}
	editID, ok := parseIDParam(c, "edit_id")
	if !ok {
		return
	}

	if err := h.history.DeleteEdit(c.Request.Context(), userID, projectID, editID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "edit deleted"})
}

// History godoc
// @Summary     Project history
// @Description Returns the original image as sequence 0 followed by every edit
// @Tags        history
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.HistoryResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/history [get]
func (h *EditsHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}

	entries, err := h.history.History(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.HistoryResponse{
		ProjectID: projectID.String(),
		Entries:   make([]models.HistoryEntryResponse, len(entries)),
	}
	for i := range entries {
		resp.Entries[i] = toHistoryEntryResponse(&entries[i])
	}
	c.JSON(http.StatusOK, resp)
}

// Restore godoc
// @Summary     Restore a history entry
// @Description Returns the entry whose image becomes the working image. No edits are removed or changed.
// @Tags        history
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.RestoreRequest true "Sequence to restore (0 is the original)"
// @Success     200 {object} models.HistoryEntryResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/history/restore [post]
func (h *EditsHandler) Restore(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	entry, err := h.history.Restore(c.Request.Context(), userID, projectID, req.Sequence)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toHistoryEntryResponse(entry))
}
