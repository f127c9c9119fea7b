package models

import "time"

type ProjectResponse struct {
	ID                    string                 `json:"id"`
	UserID                string                 `json:"user_id"`
	Name                  string                 `json:"name"`
	Description           string                 `json:"description,omitempty"`
	OriginalImageURL      string                 `json:"original_image_url"`
	ThumbnailURL          string                 `json:"thumbnail_url,omitempty"`
	OriginalImageMetadata map[string]interface{} `json:"original_image_metadata,omitempty"`
	ProjectSettings       map[string]interface{} `json:"project_settings,omitempty"`
	IsArchived            bool                   `json:"is_archived"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type ProjectDetailResponse struct {
	Project ProjectResponse `json:"project"`
	Edits   []EditResponse  `json:"edits"`
}

type EditResponse struct {
	ID                 string                 `json:"id"`
	ProjectID          string                 `json:"project_id"`
	EditNumber         int                    `json:"edit_number"`
	Prompt             string                 `json:"prompt"`
	InputImageURL      string                 `json:"input_image_url"`
	OutputImageURL     string                 `json:"output_image_url"`
	IsSuccessful       bool                   `json:"is_successful"`
	GenerationMetadata map[string]interface{} `json:"generation_metadata,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

type EditListResponse struct {
	Edits []EditResponse `json:"edits"`
}

type SubmitEditResponse struct {
	ImageURL  string        `json:"image_url"`
	Prompt    string        `json:"prompt"`
	Persisted bool          `json:"persisted"`
	Edit      *EditResponse `json:"edit,omitempty"`
	// Warning is set when the image was produced but could not be saved to
	// the project history.
	Warning string `json:"warning,omitempty"`
}

type HistoryEntryResponse struct {
	Sequence   int       `json:"sequence"`
	EditID     string    `json:"edit_id,omitempty"`
	Prompt     string    `json:"prompt,omitempty"`
	ImageURL   string    `json:"image_url"`
	IsOriginal bool      `json:"is_original"`
	CreatedAt  time.Time `json:"created_at"`
}

type HistoryResponse struct {
	ProjectID string                 `json:"project_id"`
	Entries   []HistoryEntryResponse `json:"entries"`
}

type GenerateImageResponse struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

type GenerateImageErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type SessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    int64        `json:"expires_at"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
