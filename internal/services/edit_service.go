package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/imagegen"
	"thumbnail-editor-backend/internal/lock"
	"thumbnail-editor-backend/internal/media"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/objectstore"
)

// maxSequenceAttempts bounds how often an insert that lost the race for an
// edit number is retried.
const maxSequenceAttempts = 3

type EditServiceConfig struct {
	LockTTL       time.Duration
	MaxImageBytes int64
}

// EditService runs prompt submissions: model call first, history write second.
type EditService struct {
	store     database.Store
	objects   objectstore.Store
	generator imagegen.Generator
	locker    lock.Locker
	cfg       EditServiceConfig
	log       *zap.Logger
}

// EditResult is the outcome of a submission. The image is always present;
// Persisted is false when the history write failed after generation.
type EditResult struct {
	ImageURL     string
	Prompt       string
	Edit         *models.Edit
	Persisted    bool
	PersistError string
}

func NewEditService(
	store database.Store,
	objects objectstore.Store,
	generator imagegen.Generator,
	locker lock.Locker,
	cfg EditServiceConfig,
	log *zap.Logger,
) *EditService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &EditService{
		store:     store,
		objects:   objects,
		generator: generator,
		locker:    locker,
		cfg:       cfg,
		log:       log,
	}
}

// Submit applies prompt to the project's current image. imageData is the
// browser's working image; empty means the project's latest thumbnail.
func (s *EditService) Submit(ctx context.Context, userID, projectID uuid.UUID, prompt, imageData string) (*EditResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	release, ok, err := s.locker.TryLock(ctx, lock.EditKey(projectID), s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire edit lock: %w", err)
	}
	if !ok {
		return nil, ErrEditInProgress
	}
	defer release()

	// Read under the lock so the current image is the latest edit's output.
	project, err := s.store.GetProject(ctx, projectID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	inputURL := project.CurrentImageURL()
	if imageData != "" {
		inputURL, err = resolveImage(ctx, s.objects, imageData, s.cfg.MaxImageBytes, func(img *media.Image) string {
			return objectstore.ProjectPath(userID, projectID, img.FileName("input"))
		})
		if err != nil {
			return nil, err
		}
	}

	result, err := s.generator.Generate(ctx, imagegen.Request{
		Prompt:     prompt,
		ImageURL:   inputURL,
		OutputPath: objectstore.ProjectPath(userID, projectID, fmt.Sprintf("edit-%d", time.Now().UnixMilli())),
	})
	if err != nil {
		return nil, &UpstreamError{Stage: StageGenerate, Err: err}
	}

	out := &EditResult{
		ImageURL: result.ImageURL,
		Prompt:   prompt,
	}

	// The image exists now; a dropped client must not lose its history row.
	persistCtx := context.WithoutCancel(ctx)

	edit, err := s.appendEdit(persistCtx, userID, projectID, prompt, inputURL, result)
	if err != nil {
		s.log.Error("failed to persist edit",
			zap.String("project_id", projectID.String()),
			zap.String("image_url", result.ImageURL),
			zap.Error(err))
		out.PersistError = err.Error()
		return out, nil
	}
	out.Edit = edit
	out.Persisted = true

	thumbnail := result.ImageURL
	if _, err := s.store.UpdateProject(persistCtx, projectID, userID, models.ProjectUpdate{ThumbnailURL: &thumbnail}); err != nil {
		s.log.Warn("failed to advance project thumbnail",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		out.PersistError = fmt.Sprintf("edit saved but thumbnail not updated: %v", err)
	}

	return out, nil
}

// appendEdit writes the edit as max(edit_number)+1, re-reading the maximum
// when a concurrent writer claimed the number first.
func (s *EditService) appendEdit(ctx context.Context, userID, projectID uuid.UUID, prompt, inputURL string, result *imagegen.Result) (*models.Edit, error) {
	metadata, err := json.Marshal(models.GenerationMetadata{
		Timestamp:   time.Now().UTC(),
		UserID:      userID.String(),
		Provider:    result.Provider,
		Model:       result.Model,
		RequestID:   result.RequestID,
		Description: result.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation metadata: %w", err)
	}

	for attempt := 0; attempt < maxSequenceAttempts; attempt++ {
		max, err := s.store.MaxEditNumber(ctx, projectID)
		if err != nil {
			return nil, err
		}

		edit, err := s.store.CreateEdit(ctx, &models.Edit{
			ProjectID:          projectID,
			EditNumber:         max + 1,
			Prompt:             prompt,
			InputImageURL:      inputURL,
			OutputImageURL:     result.ImageURL,
			IsSuccessful:       true,
			GenerationMetadata: metadata,
		})
		if errors.Is(err, database.ErrEditNumberTaken) {
			s.log.Debug("edit number taken, retrying",
				zap.String("project_id", projectID.String()),
				zap.Int("edit_number", max+1))
			continue
		}
		if err != nil {
			return nil, err
		}
		return edit, nil
	}

	return nil, ErrSequenceConflict
}

// Generate is the stateless prompt-to-image call. Inline input images go to
// the caller's scratch area first; nothing is recorded.
func (s *EditService) Generate(ctx context.Context, userID uuid.UUID, prompt, imageData string) (*imagegen.Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	var inputURL string
	if imageData != "" {
		var err error
		inputURL, err = resolveImage(ctx, s.objects, imageData, s.cfg.MaxImageBytes, func(img *media.Image) string {
			return objectstore.ScratchPath(userID, img.FileName("input"))
		})
		if err != nil {
			return nil, err
		}
	}

	result, err := s.generator.Generate(ctx, imagegen.Request{
		Prompt:     prompt,
		ImageURL:   inputURL,
		OutputPath: objectstore.ScratchPath(userID, fmt.Sprintf("output-%d", time.Now().UnixMilli())),
	})
	if err != nil {
		return nil, &UpstreamError{Stage: StageGenerate, Err: err}
	}
	return result, nil
}
