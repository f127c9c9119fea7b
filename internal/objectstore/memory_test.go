package objectstore_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thumbnail-editor-backend/internal/objectstore"
)

func TestMemoryStore_UploadAndDeletePrefix(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore("https://objects.example/")
	userID := uuid.New()
	keep := uuid.New()
	drop := uuid.New()

	url, err := store.Upload(ctx, objectstore.ProjectPath(userID, drop, "original.png"), "image/png", []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, store.PublicURL(objectstore.ProjectPath(userID, drop, "original.png")), url)

	_, err = store.Upload(ctx, objectstore.ProjectPath(userID, drop, "input-1.png"), "image/png", []byte("b"))
	require.NoError(t, err)
	_, err = store.Upload(ctx, objectstore.ProjectPath(userID, keep, "original.png"), "image/png", []byte("c"))
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	require.NoError(t, store.DeletePrefix(ctx, objectstore.ProjectPrefix(userID, drop)))

	assert.Equal(t, 1, store.Len())
	obj, ok := store.Get(objectstore.ProjectPath(userID, keep, "original.png"))
	require.True(t, ok)
	assert.Equal(t, []byte("c"), obj.Data)
}

func TestPaths(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-4111-8111-111111111111")
	projectID := uuid.MustParse("22222222-2222-4222-8222-222222222222")

	assert.Equal(t,
		"users/11111111-1111-4111-8111-111111111111/projects/22222222-2222-4222-8222-222222222222/original.png",
		objectstore.ProjectPath(userID, projectID, "original.png"))
	assert.Equal(t,
		"users/11111111-1111-4111-8111-111111111111/scratch/output-1",
		objectstore.ScratchPath(userID, "output-1"))
}
