// Package imagegen talks to hosted image models. A Generator turns a prompt,
// and optionally the image being edited, into the URL of a new image.
package imagegen

import (
	"context"
	"errors"
)

// ErrNoImage is returned when the model answered without an image.
var ErrNoImage = errors.New("no image generated")

type Request struct {
	Prompt string
	// ImageURL is the image to edit. Empty means text-to-image.
	ImageURL string
	// OutputPath is the object path, without extension, for providers that
	// return image bytes instead of a hosted URL.
	OutputPath string
}

type Result struct {
	ImageURL    string
	Description string
	Provider    string
	Model       string
	RequestID   string
}

type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
