package services

import (
	"errors"
	"fmt"

	"thumbnail-editor-backend/internal/media"
)

var (
	ErrEmptyPrompt     = errors.New("prompt is required")
	ErrNameRequired    = errors.New("project name is required")
	ErrImageRequired   = errors.New("a starting image is required")
	ErrProjectNotFound = errors.New("project not found")
	ErrEditNotFound    = errors.New("edit not found")
	ErrEditInProgress  = errors.New("an edit is already in progress for this project")
	// ErrSequenceConflict means every attempt to claim the next edit number
	// lost to a concurrent writer.
	ErrSequenceConflict = errors.New("could not allocate an edit number")
)

type Stage string

const (
	StageUpload   Stage = "upload"
	StageGenerate Stage = "generate"
)

// UpstreamError wraps a failure of object storage or the image model.
type UpstreamError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyPrompt) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrImageRequired) ||
		errors.Is(err, media.ErrInvalidDataURL) ||
		errors.Is(err, media.ErrNotImage) ||
		errors.Is(err, media.ErrTooLarge)
}

// IsUpstream reports whether err came from storage or the image model.
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}
