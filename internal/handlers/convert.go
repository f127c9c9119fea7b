package handlers

import (
	"encoding/json"

	"thumbnail-editor-backend/internal/models"
)

func jsonObject(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func toProjectResponse(p *models.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:                    p.ID.String(),
		UserID:                p.UserID.String(),
		Name:                  p.Name,
		Description:           p.Description.String,
		OriginalImageURL:      p.OriginalImageURL,
		ThumbnailURL:          p.ThumbnailURL.String,
		OriginalImageMetadata: jsonObject(p.OriginalImageMetadata),
		ProjectSettings:       jsonObject(p.ProjectSettings),
		IsArchived:            p.IsArchived,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func toEditResponse(e *models.Edit) models.EditResponse {
	return models.EditResponse{
		ID:                 e.ID.String(),
		ProjectID:          e.ProjectID.String(),
		EditNumber:         e.EditNumber,
		Prompt:             e.Prompt,
		InputImageURL:      e.InputImageURL,
		OutputImageURL:     e.OutputImageURL,
		IsSuccessful:       e.IsSuccessful,
		GenerationMetadata: jsonObject(e.GenerationMetadata),
		CreatedAt:          e.CreatedAt,
	}
}

func toEditResponses(edits []models.Edit) []models.EditResponse {
	out := make([]models.EditResponse, len(edits))
	for i := range edits {
		out[i] = toEditResponse(&edits[i])
	}
	return out
}

func toHistoryEntryResponse(e *models.HistoryEntry) models.HistoryEntryResponse {
	resp := models.HistoryEntryResponse{
		Sequence:   e.Sequence,
		Prompt:     e.Prompt,
		ImageURL:   e.ImageURL,
		IsOriginal: e.IsOriginal,
		CreatedAt:  e.CreatedAt,
	}
	if !e.IsOriginal {
		resp.EditID = e.EditID.String()
	}
	return resp
}
