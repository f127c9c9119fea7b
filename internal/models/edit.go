package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Edit struct {
	ID                 uuid.UUID
	ProjectID          uuid.UUID
	EditNumber         int
	Prompt             string
	InputImageURL      string
	OutputImageURL     string
	IsSuccessful       bool
	GenerationMetadata json.RawMessage
	CreatedAt          time.Time
}

// GenerationMetadata is what we record about the upstream call that
// produced an edit.
type GenerationMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Description string    `json:"description,omitempty"`
}
