// Package objectstore holds the image storage contract and its S3 and
// in-memory implementations. The Supabase Storage implementation lives in
// the supabase package.
package objectstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Store interface {
	// Upload writes data at path and returns a URL the image model can
	// fetch it from.
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	PublicURL(path string) string
	DeletePrefix(ctx context.Context, prefix string) error
}

// ProjectPrefix is the folder holding every object of one project.
func ProjectPrefix(userID, projectID uuid.UUID) string {
	return fmt.Sprintf("users/%s/projects/%s/", userID, projectID)
}

func ProjectPath(userID, projectID uuid.UUID, filename string) string {
	return ProjectPrefix(userID, projectID) + filename
}

// ScratchPath is where uploads that belong to no project go.
func ScratchPath(userID uuid.UUID, filename string) string {
	return fmt.Sprintf("users/%s/scratch/%s", userID, filename)
}
