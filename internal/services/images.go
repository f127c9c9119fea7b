package services

import (
	"context"
	"fmt"
	"strings"

	"thumbnail-editor-backend/internal/media"
	"thumbnail-editor-backend/internal/objectstore"
)

// resolveImage turns what the browser sent into a URL the model can fetch.
// Inline data is uploaded to pathFor(image); links pass through.
func resolveImage(ctx context.Context, objects objectstore.Store, imageData string, maxBytes int64, pathFor func(*media.Image) string) (string, error) {
	imageData = strings.TrimSpace(imageData)

	switch {
	case media.IsDataURL(imageData):
		img, err := media.ParseDataURL(imageData, maxBytes)
		if err != nil {
			return "", err
		}
		url, err := objects.Upload(ctx, pathFor(img), img.MIMEType, img.Data)
		if err != nil {
			return "", &UpstreamError{Stage: StageUpload, Err: err}
		}
		return url, nil
	case media.IsRemoteURL(imageData):
		return imageData, nil
	default:
		return "", fmt.Errorf("%w: expected a data url or an http(s) url", media.ErrInvalidDataURL)
	}
}
