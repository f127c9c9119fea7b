package supabase_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thumbnail-editor-backend/internal/objectstore"
	"thumbnail-editor-backend/internal/supabase"
)

func TestStorageClient_PublicURL(t *testing.T) {
	client, err := supabase.NewStorageClient("https://abc.supabase.co/", "key", "project-images")
	require.NoError(t, err)

	userID := uuid.New()
	projectID := uuid.New()
	storagePath := objectstore.ProjectPath(userID, projectID, "original.png")

	assert.Equal(t,
		"https://abc.supabase.co/storage/v1/object/public/project-images/users/"+userID.String()+"/projects/"+projectID.String()+"/original.png",
		client.PublicURL(storagePath))
}

func TestStorageClient_RequiresURL(t *testing.T) {
	_, err := supabase.NewStorageClient("", "key", "bucket")
	assert.Error(t, err)
}
