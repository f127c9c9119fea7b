package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/media"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/objectstore"
)

type CreateProjectInput struct {
	Name        string
	Description string
	// ImageData is a data URL or an http(s) link to the starting image.
	ImageData string
	FileName  string
	Settings  map[string]interface{}
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	Settings    map[string]interface{}
}

type ProjectService struct {
	store         database.Store
	objects       objectstore.Store
	maxImageBytes int64
	log           *zap.Logger
}

func NewProjectService(store database.Store, objects objectstore.Store, maxImageBytes int64, log *zap.Logger) *ProjectService {
	return &ProjectService{
		store:         store,
		objects:       objects,
		maxImageBytes: maxImageBytes,
		log:           log,
	}
}

// Create stores the starting image and a project whose thumbnail is that
// image.
func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	imageData := strings.TrimSpace(input.ImageData)
	if imageData == "" {
		return nil, ErrImageRequired
	}

	projectID := uuid.New()
	fileName := strings.TrimSpace(input.FileName)

	var (
		imageURL string
		metadata map[string]interface{}
	)
	switch {
	case media.IsDataURL(imageData):
		img, err := media.ParseDataURL(imageData, s.maxImageBytes)
		if err != nil {
			return nil, err
		}
		if fileName == "" {
			fileName = "original" + img.Extension()
		}
		imageURL, err = s.objects.Upload(ctx, objectstore.ProjectPath(userID, projectID, "original"+img.Extension()), img.MIMEType, img.Data)
		if err != nil {
			return nil, &UpstreamError{Stage: StageUpload, Err: err}
		}
		metadata = img.Metadata(fileName)
	case media.IsRemoteURL(imageData):
		imageURL = imageData
		if fileName == "" {
			fileName = path.Base(imageData)
		}
		metadata = map[string]interface{}{"fileName": fileName}
	default:
		return nil, fmt.Errorf("%w: expected a data url or an http(s) url", media.ErrInvalidDataURL)
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image metadata: %w", err)
	}
	settingsJSON, err := marshalSettings(input.Settings)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		ID:                    projectID,
		UserID:                userID,
		Name:                  name,
		OriginalImageURL:      imageURL,
		OriginalImageMetadata: metadataJSON,
		ProjectSettings:       settingsJSON,
	}
	project.ThumbnailURL.String, project.ThumbnailURL.Valid = imageURL, true
	if desc := strings.TrimSpace(input.Description); desc != "" {
		project.Description.String, project.Description.Valid = desc, true
	}

	created, err := s.store.CreateProject(ctx, project)
	if err != nil {
		s.cleanup(ctx, userID, projectID)
		return nil, err
	}
	return created, nil
}

// List returns the owner's active projects, most recently updated first.
// A non-empty query keeps projects whose name or description contains it,
// ignoring case.
func (s *ProjectService) List(ctx context.Context, userID uuid.UUID, query string) ([]models.Project, error) {
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return projects, nil
	}

	filtered := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			(p.Description.Valid && strings.Contains(strings.ToLower(p.Description.String), query)) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, projectID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetWithEdits returns the project and its edits in edit_number order.
func (s *ProjectService) GetWithEdits(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, []models.Edit, error) {
	project, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}

	edits, err := s.store.ListEdits(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return project, edits, nil
}

func (s *ProjectService) ListEdits(ctx context.Context, userID, projectID uuid.UUID) ([]models.Edit, error) {
	_, edits, err := s.GetWithEdits(ctx, userID, projectID)
	return edits, err
}

func (s *ProjectService) Update(ctx context.Context, userID, projectID uuid.UUID, input UpdateProjectInput) (*models.Project, error) {
	var update models.ProjectUpdate

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		update.Name = &name
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		update.Description = &desc
	}
	if input.Settings != nil {
		settings, err := marshalSettings(input.Settings)
		if err != nil {
			return nil, err
		}
		update.ProjectSettings = settings
	}

	return s.update(ctx, userID, projectID, update)
}

// Archive hides the project from listings. Its edits are kept.
func (s *ProjectService) Archive(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	archived := true
	return s.update(ctx, userID, projectID, models.ProjectUpdate{IsArchived: &archived})
}

// Delete removes the project and its edits for good. Stored images are
// removed on a best effort basis.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, projectID); err != nil {
		return err
	}

	if err := s.store.DeleteProjectEdits(ctx, projectID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, projectID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	s.cleanup(ctx, userID, projectID)
	return nil
}

func (s *ProjectService) update(ctx context.Context, userID, projectID uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	project, err := s.store.UpdateProject(ctx, projectID, userID, update)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) cleanup(ctx context.Context, userID, projectID uuid.UUID) {
	prefix := objectstore.ProjectPrefix(userID, projectID)
	if err := s.objects.DeletePrefix(ctx, prefix); err != nil {
		s.log.Warn("failed to remove project images",
			zap.String("prefix", prefix),
			zap.Error(err))
	}
}

func marshalSettings(settings map[string]interface{}) (json.RawMessage, error) {
	if settings == nil {
		return nil, nil
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project settings: %w", err)
	}
	return data, nil
}
