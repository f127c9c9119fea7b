package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	Name                  string
	Description           sql.NullString
	OriginalImageURL      string
	ThumbnailURL          sql.NullString
	OriginalImageMetadata json.RawMessage
	ProjectSettings       json.RawMessage
	IsArchived            bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ProjectUpdate carries the columns to change. Nil fields are left alone.
type ProjectUpdate struct {
	Name            *string
	Description     *string
	ThumbnailURL    *string
	ProjectSettings json.RawMessage
	IsArchived      *bool
}

// IsEmpty reports whether the update would not change any column.
func (u ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.ThumbnailURL == nil &&
		u.ProjectSettings == nil && u.IsArchived == nil
}

// CurrentImageURL is the image a new edit starts from when the caller does
// not name one: the latest thumbnail, falling back to the original.
func (p *Project) CurrentImageURL() string {
	if p.ThumbnailURL.Valid && p.ThumbnailURL.String != "" {
		return p.ThumbnailURL.String
	}
	return p.OriginalImageURL
}
