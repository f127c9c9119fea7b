package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/models"
)

const (
	projectColumns = `id, user_id, name, description, original_image_url, thumbnail_url,
		original_image_metadata, project_settings, is_archived, created_at, updated_at`
	editColumns = `id, project_id, edit_number, prompt, input_image_url, output_image_url,
		is_successful, generation_metadata, created_at`

	uniqueViolation = "23505"
)

// DatabaseClient talks to the Supabase Postgres instance directly.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientWithDB wraps an already opened handle.
func NewDatabaseClientWithDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.OriginalImageURL, &p.ThumbnailURL,
		(*[]byte)(&p.OriginalImageMetadata), (*[]byte)(&p.ProjectSettings),
		&p.IsArchived, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanEdit(row rowScanner) (*models.Edit, error) {
	var e models.Edit
	err := row.Scan(
		&e.ID, &e.ProjectID, &e.EditNumber, &e.Prompt, &e.InputImageURL, &e.OutputImageURL,
		&e.IsSuccessful, (*[]byte)(&e.GenerationMetadata), &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// nullJSON maps an empty document to SQL NULL.
func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (d *DatabaseClient) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	id := project.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := d.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, user_id, name, description, original_image_url, thumbnail_url,
			original_image_metadata, project_settings, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+projectColumns,
		id, project.UserID, project.Name, project.Description, project.OriginalImageURL,
		project.ThumbnailURL, nullJSON(project.OriginalImageMetadata), nullJSON(project.ProjectSettings),
		project.IsArchived,
	)

	created, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = $1 AND is_archived = FALSE
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (d *DatabaseClient) UpdateProject(ctx context.Context, projectID, userID uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	if update.IsEmpty() {
		return d.GetProject(ctx, projectID, userID)
	}

	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 7)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.ThumbnailURL != nil {
		add("thumbnail_url", *update.ThumbnailURL)
	}
	if update.ProjectSettings != nil {
		add("project_settings", nullJSON(update.ProjectSettings))
	}
	if update.IsArchived != nil {
		add("is_archived", *update.IsArchived)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, projectID, userID)
	query := fmt.Sprintf(`
		UPDATE projects
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING `+projectColumns,
		strings.Join(sets, ", "), len(args)-1, len(args))

	p, err := scanProject(d.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (d *DatabaseClient) DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error {
	result, err := d.db.ExecContext(ctx, `
		DELETE FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) CreateEdit(ctx context.Context, edit *models.Edit) (*models.Edit, error) {
	id := edit.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := d.db.QueryRowContext(ctx, `
		INSERT INTO edits (id, project_id, edit_number, prompt, input_image_url, output_image_url,
			is_successful, generation_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+editColumns,
		id, edit.ProjectID, edit.EditNumber, edit.Prompt, edit.InputImageURL, edit.OutputImageURL,
		edit.IsSuccessful, nullJSON(edit.GenerationMetadata),
	)

	created, err := scanEdit(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, database.ErrEditNumberTaken
		}
		return nil, fmt.Errorf("failed to create edit: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) ListEdits(ctx context.Context, projectID uuid.UUID) ([]models.Edit, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+editColumns+`
		FROM edits
		WHERE project_id = $1
		ORDER BY edit_number ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer rows.Close()

	edits := make([]models.Edit, 0)
	for rows.Next() {
		e, err := scanEdit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		edits = append(edits, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}

	return edits, nil
}

func (d *DatabaseClient) MaxEditNumber(ctx context.Context, projectID uuid.UUID) (int, error) {
	var max int
	err := d.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(edit_number), 0)
		FROM edits
		WHERE project_id = $1
	`, projectID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max edit number: %w", err)
	}
	return max, nil
}

func (d *DatabaseClient) DeleteEdit(ctx context.Context, projectID, editID uuid.UUID) error {
	result, err := d.db.ExecContext(ctx, `
		DELETE FROM edits
		WHERE id = $1 AND project_id = $2
	`, editID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete edit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) DeleteProjectEdits(ctx context.Context, projectID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		DELETE FROM edits
		WHERE project_id = $1
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project edits: %w", err)
	}
	return nil
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
