package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/models"
)

const (
	projectsTable = "projects"
	editsTable    = "edits"

	// PostgREST reports "no rows" for single-object requests with this code.
	pgrstNoRows = "PGRST116"
)

// RestStore implements database.Store through the Supabase query client
// (PostgREST). It is built with the service role key, so every project
// query carries an explicit user_id filter.
type RestStore struct {
	from func(table string) *postgrest.QueryBuilder
}

func NewRestStore(client *Client) *RestStore {
	return &RestStore{from: client.Supabase.From}
}

// NewRestStoreWithClient uses a bare PostgREST client, e.g. one pointed at
// a self-hosted PostgREST.
func NewRestStoreWithClient(client *postgrest.Client) *RestStore {
	return &RestStore{from: client.From}
}

type restProject struct {
	ID                    string          `json:"id,omitempty"`
	UserID                string          `json:"user_id"`
	Name                  string          `json:"name"`
	Description           *string         `json:"description"`
	OriginalImageURL      string          `json:"original_image_url"`
	ThumbnailURL          *string         `json:"thumbnail_url"`
	OriginalImageMetadata json.RawMessage `json:"original_image_metadata,omitempty"`
	ProjectSettings       json.RawMessage `json:"project_settings,omitempty"`
	IsArchived            bool            `json:"is_archived"`
	CreatedAt             *time.Time      `json:"created_at,omitempty"`
	UpdatedAt             *time.Time      `json:"updated_at,omitempty"`
}

type restEdit struct {
	ID                 string          `json:"id,omitempty"`
	ProjectID          string          `json:"project_id"`
	EditNumber         int             `json:"edit_number"`
	Prompt             string          `json:"prompt"`
	InputImageURL      string          `json:"input_image_url"`
	OutputImageURL     string          `json:"output_image_url"`
	IsSuccessful       bool            `json:"is_successful"`
	GenerationMetadata json.RawMessage `json:"generation_metadata,omitempty"`
	CreatedAt          *time.Time      `json:"created_at,omitempty"`
}

func jsonOrNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

func (r restProject) toModel() (*models.Project, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id %q: %w", r.ID, err)
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", r.UserID, err)
	}

	p := &models.Project{
		ID:                    id,
		UserID:                userID,
		Name:                  r.Name,
		OriginalImageURL:      r.OriginalImageURL,
		OriginalImageMetadata: jsonOrNil(r.OriginalImageMetadata),
		ProjectSettings:       jsonOrNil(r.ProjectSettings),
		IsArchived:            r.IsArchived,
	}
	if r.Description != nil {
		p.Description.String, p.Description.Valid = *r.Description, true
	}
	if r.ThumbnailURL != nil {
		p.ThumbnailURL.String, p.ThumbnailURL.Valid = *r.ThumbnailURL, true
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		p.UpdatedAt = *r.UpdatedAt
	}
	return p, nil
}

func (r restEdit) toModel() (*models.Edit, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid edit id %q: %w", r.ID, err)
	}
	projectID, err := uuid.Parse(r.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id %q: %w", r.ProjectID, err)
	}

	e := &models.Edit{
		ID:                 id,
		ProjectID:          projectID,
		EditNumber:         r.EditNumber,
		Prompt:             r.Prompt,
		InputImageURL:      r.InputImageURL,
		OutputImageURL:     r.OutputImageURL,
		IsSuccessful:       r.IsSuccessful,
		GenerationMetadata: jsonOrNil(r.GenerationMetadata),
	}
	if r.CreatedAt != nil {
		e.CreatedAt = *r.CreatedAt
	}
	return e, nil
}

// restError maps PostgREST error codes onto the store's sentinel errors.
// The client formats failures as "(code) message"; only the code counts.
func restError(op string, err error) error {
	switch restErrorCode(err.Error()) {
	case pgrstNoRows:
		return database.ErrNotFound
	case uniqueViolation:
		return database.ErrEditNumberTaken
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func restErrorCode(msg string) string {
	if !strings.HasPrefix(msg, "(") {
		return ""
	}
	end := strings.IndexByte(msg, ')')
	if end < 0 {
		return ""
	}
	return msg[1:end]
}

func (s *RestStore) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	row := restProject{
		UserID:                project.UserID.String(),
		Name:                  project.Name,
		OriginalImageURL:      project.OriginalImageURL,
		OriginalImageMetadata: jsonOrNil(project.OriginalImageMetadata),
		ProjectSettings:       jsonOrNil(project.ProjectSettings),
		IsArchived:            project.IsArchived,
	}
	if project.ID != uuid.Nil {
		row.ID = project.ID.String()
	}
	if project.Description.Valid {
		row.Description = &project.Description.String
	}
	if project.ThumbnailURL.Valid {
		row.ThumbnailURL = &project.ThumbnailURL.String
	}

	var created restProject
	_, err := s.from(projectsTable).
		Insert(row, false, "", "representation", "").
		Single().
		ExecuteTo(&created)
	if err != nil {
		return nil, restError("create project", err)
	}
	return created.toModel()
}

func (s *RestStore) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var rows []restProject
	_, err := s.from(projectsTable).
		Select("*", "", false).
		Eq("user_id", userID.String()).
		Eq("is_archived", "false").
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, restError("list projects", err)
	}

	projects := make([]models.Project, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

func (s *RestStore) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	var row restProject
	_, err := s.from(projectsTable).
		Select("*", "", false).
		Eq("id", projectID.String()).
		Eq("user_id", userID.String()).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, restError("get project", err)
	}
	return row.toModel()
}

func (s *RestStore) UpdateProject(ctx context.Context, projectID, userID uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	if update.IsEmpty() {
		return s.GetProject(ctx, projectID, userID)
	}

	values := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if update.Name != nil {
		values["name"] = *update.Name
	}
	if update.Description != nil {
		values["description"] = *update.Description
	}
	if update.ThumbnailURL != nil {
		values["thumbnail_url"] = *update.ThumbnailURL
	}
	if update.ProjectSettings != nil {
		values["project_settings"] = update.ProjectSettings
	}
	if update.IsArchived != nil {
		values["is_archived"] = *update.IsArchived
	}

	var row restProject
	_, err := s.from(projectsTable).
		Update(values, "representation", "").
		Eq("id", projectID.String()).
		Eq("user_id", userID.String()).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, restError("update project", err)
	}
	return row.toModel()
}

func (s *RestStore) DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error {
	var rows []restProject
	_, err := s.from(projectsTable).
		Delete("representation", "").
		Eq("id", projectID.String()).
		Eq("user_id", userID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return restError("delete project", err)
	}
	if len(rows) == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *RestStore) CreateEdit(ctx context.Context, edit *models.Edit) (*models.Edit, error) {
	row := restEdit{
		ProjectID:          edit.ProjectID.String(),
		EditNumber:         edit.EditNumber,
		Prompt:             edit.Prompt,
		InputImageURL:      edit.InputImageURL,
		OutputImageURL:     edit.OutputImageURL,
		IsSuccessful:       edit.IsSuccessful,
		GenerationMetadata: jsonOrNil(edit.GenerationMetadata),
	}
	if edit.ID != uuid.Nil {
		row.ID = edit.ID.String()
	}

	var created restEdit
	_, err := s.from(editsTable).
		Insert(row, false, "", "representation", "").
		Single().
		ExecuteTo(&created)
	if err != nil {
		return nil, restError("create edit", err)
	}
	return created.toModel()
}

func (s *RestStore) ListEdits(ctx context.Context, projectID uuid.UUID) ([]models.Edit, error) {
	var rows []restEdit
	_, err := s.from(editsTable).
		Select("*", "", false).
		Eq("project_id", projectID.String()).
		Order("edit_number", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, restError("list edits", err)
	}

	edits := make([]models.Edit, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		edits = append(edits, *e)
	}
	return edits, nil
}

func (s *RestStore) MaxEditNumber(ctx context.Context, projectID uuid.UUID) (int, error) {
	var rows []struct {
		EditNumber int `json:"edit_number"`
	}
	_, err := s.from(editsTable).
		Select("edit_number", "", false).
		Eq("project_id", projectID.String()).
		Order("edit_number", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return 0, restError("read max edit number", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].EditNumber, nil
}

func (s *RestStore) DeleteEdit(ctx context.Context, projectID, editID uuid.UUID) error {
	var rows []restEdit
	_, err := s.from(editsTable).
		Delete("representation", "").
		Eq("id", editID.String()).
		Eq("project_id", projectID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return restError("delete edit", err)
	}
	if len(rows) == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *RestStore) DeleteProjectEdits(ctx context.Context, projectID uuid.UUID) error {
	_, _, err := s.from(editsTable).
		Delete("minimal", "").
		Eq("project_id", projectID.String()).
		Execute()
	if err != nil {
		return restError("delete project edits", err)
	}
	return nil
}
