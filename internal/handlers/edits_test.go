package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thumbnail-editor-backend/internal/models"
)

func TestSubmitEdit(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject(t, "edits")

	w := s.do(http.MethodPost, "/api/v1/projects/"+project.ID+"/edits", models.SubmitEditRequest{Prompt: "  brighten  "})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.SubmitEditResponse
	decode(t, w, &resp)
	assert.True(t, resp.Persisted)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, "brighten", resp.Prompt)
	assert.Equal(t, "https://gen.example/out-1.jpg", resp.ImageURL)
	require.NotNil(t, resp.Edit)
	assert.Equal(t, 1, resp.Edit.EditNumber)
	assert.Equal(t, project.OriginalImageURL, resp.Edit.InputImageURL)
	assert.Equal(t, "stub", resp.Edit.GenerationMetadata["provider"])
}

func TestSubmitEdit_StatusMapping(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject(t, "errors")
	path := "/api/v1/projects/" + project.ID + "/edits"

	w := s.do(http.MethodPost, path, models.SubmitEditRequest{Prompt: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path, models.SubmitEditRequest{Prompt: "x", ImageData: "ftp://nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/projects/"+uuid.NewString()+"/edits", models.SubmitEditRequest{Prompt: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.generator.err = errors.New("model overloaded")
	w = s.do(http.MethodPost, path, models.SubmitEditRequest{Prompt: "x"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp models.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "upstream failure", resp.Error)
	assert.Contains(t, resp.Message, "model overloaded")
}

func TestHistoryAndRestore(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject(t, "history")
	base := "/api/v1/projects/" + project.ID

	w := s.do(http.MethodPost, base+"/edits", models.SubmitEditRequest{Prompt: "brighten"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history models.HistoryResponse
	decode(t, w, &history)
	assert.Equal(t, project.ID, history.ProjectID)
	require.Len(t, history.Entries, 2)
	assert.True(t, history.Entries[0].IsOriginal)
	assert.Empty(t, history.Entries[0].EditID)
	assert.Equal(t, project.OriginalImageURL, history.Entries[0].ImageURL)
	assert.Equal(t, 1, history.Entries[1].Sequence)
	assert.Equal(t, "brighten", history.Entries[1].Prompt)

	w = s.do(http.MethodPost, base+"/history/restore", models.RestoreRequest{Sequence: 0})
	require.Equal(t, http.StatusOK, w.Code)
	var restored models.HistoryEntryResponse
	decode(t, w, &restored)
	assert.Equal(t, project.OriginalImageURL, restored.ImageURL)

	// Editing from the restored image appends rather than truncating.
	w = s.do(http.MethodPost, base+"/edits", models.SubmitEditRequest{Prompt: "add text", ImageData: restored.ImageURL})
	require.Equal(t, http.StatusOK, w.Code)
	var second models.SubmitEditResponse
	decode(t, w, &second)
	assert.Equal(t, 2, second.Edit.EditNumber)

	w = s.do(http.MethodGet, base+"/edits", nil)
	var edits models.EditListResponse
	decode(t, w, &edits)
	assert.Len(t, edits.Edits, 2)

	w = s.do(http.MethodPost, base+"/history/restore", models.RestoreRequest{Sequence: 9})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEdit(t *testing.T) {
	s := newTestServer(t)
	project := s.createProject(t, "delete edit")
	base := "/api/v1/projects/" + project.ID

	w := s.do(http.MethodPost, base+"/edits", models.SubmitEditRequest{Prompt: "brighten"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.SubmitEditResponse
	decode(t, w, &resp)

	w = s.do(http.MethodDelete, base+"/edits/"+resp.Edit.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, base, nil)
	var detail models.ProjectDetailResponse
	decode(t, w, &detail)
	assert.Empty(t, detail.Edits)
	assert.Equal(t, project.OriginalImageURL, detail.Project.ThumbnailURL)

	w = s.do(http.MethodDelete, base+"/edits/"+resp.Edit.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, base+"/edits/bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
