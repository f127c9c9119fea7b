package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"thumbnail-editor-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrEditNumberTaken is returned by CreateEdit when another edit already
	// holds the (project_id, edit_number) pair.
	ErrEditNumberTaken = errors.New("edit number already taken")
)

// Store is the data access layer over the projects and edits relations.
// Project reads and writes are always scoped to the owning user.
type Store interface {
	CreateProject(ctx context.Context, project *models.Project) (*models.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error)
	UpdateProject(ctx context.Context, projectID, userID uuid.UUID, update models.ProjectUpdate) (*models.Project, error)
	DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error

	CreateEdit(ctx context.Context, edit *models.Edit) (*models.Edit, error)
	ListEdits(ctx context.Context, projectID uuid.UUID) ([]models.Edit, error)
	MaxEditNumber(ctx context.Context, projectID uuid.UUID) (int, error)
	DeleteEdit(ctx context.Context, projectID, editID uuid.UUID) error
	DeleteProjectEdits(ctx context.Context, projectID uuid.UUID) error
}
