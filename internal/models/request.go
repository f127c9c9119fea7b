package models

type CreateProjectRequest struct {
	Name        string `json:"name" example:"YouTube Thumbnail v2"`
	Description string `json:"description,omitempty"`
	// ImageData is the starting image as a data URL (data:image/png;base64,...)
	// or an http(s) URL.
	ImageData string `json:"image_data"`
	FileName  string `json:"file_name,omitempty" example:"thumbnail.png"`
	// Optional free-form settings stored with the project
	Settings map[string]interface{} `json:"settings,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}

type SubmitEditRequest struct {
	Prompt string `json:"prompt" example:"Make the colors more vibrant"`
	// ImageData is the current working image. Defaults to the project's
	// latest thumbnail when empty.
	ImageData string `json:"image_data,omitempty"`
}

type RestoreRequest struct {
	Sequence int `json:"sequence" example:"0"`
}

// GenerateImageRequest keeps the camelCase body of the browser's
// generate-image call.
type GenerateImageRequest struct {
	Prompt    string `json:"prompt"`
	ImageData string `json:"imageData,omitempty"`
}

type OTPRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" example:"user@example.com"`
	Token string `json:"token" example:"123456"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
