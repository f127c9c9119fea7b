package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/models"
)

// HistoryService derives the linear history view from the stored edits.
type HistoryService struct {
	store database.Store
	log   *zap.Logger
}

func NewHistoryService(store database.Store, log *zap.Logger) *HistoryService {
	return &HistoryService{store: store, log: log}
}

// BuildHistory lays out the original image as sequence 0 followed by every
// edit in edit_number order. edits must already be sorted.
func BuildHistory(project *models.Project, edits []models.Edit) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(edits)+1)
	entries = append(entries, models.HistoryEntry{
		Sequence:   models.OriginalSequence,
		ImageURL:   project.OriginalImageURL,
		IsOriginal: true,
		CreatedAt:  project.CreatedAt,
	})
	for _, e := range edits {
		entries = append(entries, models.HistoryEntry{
			Sequence:  e.EditNumber,
			EditID:    e.ID,
			Prompt:    e.Prompt,
			ImageURL:  e.OutputImageURL,
			CreatedAt: e.CreatedAt,
		})
	}
	return entries
}

func (s *HistoryService) History(ctx context.Context, userID, projectID uuid.UUID) ([]models.HistoryEntry, error) {
	project, edits, err := s.load(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return BuildHistory(project, edits), nil
}

// Restore returns the entry at sequence so the client can make its image the
// working image. History is left untouched.
func (s *HistoryService) Restore(ctx context.Context, userID, projectID uuid.UUID, sequence int) (*models.HistoryEntry, error) {
	if sequence < models.OriginalSequence {
		return nil, ErrEditNotFound
	}

	entries, err := s.History(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Sequence == sequence {
			return &entries[i], nil
		}
	}
	return nil, ErrEditNotFound
}

// DeleteEdit removes one edit. Later edit numbers are not compacted. When the
// removed edit was the project's thumbnail, the thumbnail falls back to the
// newest remaining image.
func (s *HistoryService) DeleteEdit(ctx context.Context, userID, projectID, editID uuid.UUID) error {
	project, edits, err := s.load(ctx, userID, projectID)
	if err != nil {
		return err
	}

	var (
		deleted   *models.Edit
		remaining = make([]models.Edit, 0, len(edits))
	)
	for i := range edits {
		if edits[i].ID == editID {
			deleted = &edits[i]
			continue
		}
		remaining = append(remaining, edits[i])
	}
	if deleted == nil {
		return ErrEditNotFound
	}

	if err := s.store.DeleteEdit(ctx, projectID, editID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrEditNotFound
		}
		return err
	}

	if project.ThumbnailURL.Valid && project.ThumbnailURL.String == deleted.OutputImageURL {
		thumbnail := project.OriginalImageURL
		if n := len(remaining); n > 0 {
			thumbnail = remaining[n-1].OutputImageURL
		}
		if _, err := s.store.UpdateProject(ctx, projectID, userID, models.ProjectUpdate{ThumbnailURL: &thumbnail}); err != nil {
			s.log.Warn("failed to reset project thumbnail",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
		}
	}

	return nil
}

func (s *HistoryService) load(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, []models.Edit, error) {
	project, err := s.store.GetProject(ctx, projectID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	edits, err := s.store.ListEdits(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return project, edits, nil
}
