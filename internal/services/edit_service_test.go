package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/imagegen"
	"thumbnail-editor-backend/internal/media"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/objectstore"
	"thumbnail-editor-backend/internal/services"
)

func TestSubmit_AppendsEditAndAdvancesThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, "launch")

	result, err := f.edits.Submit(ctx, f.userID, project.ID, "  brighten  ", "")
	require.NoError(t, err)

	assert.True(t, result.Persisted)
	assert.Empty(t, result.PersistError)
	assert.Equal(t, "brighten", result.Prompt)
	assert.Equal(t, "https://gen.example/out-1.jpg", result.ImageURL)
	require.NotNil(t, result.Edit)
	assert.Equal(t, 1, result.Edit.EditNumber)
	assert.Equal(t, project.OriginalImageURL, result.Edit.InputImageURL)
	assert.True(t, result.Edit.IsSuccessful)

	var meta models.GenerationMetadata
	require.NoError(t, json.Unmarshal(result.Edit.GenerationMetadata, &meta))
	assert.Equal(t, f.userID.String(), meta.UserID)
	assert.Equal(t, "fake-model", meta.Model)
	assert.Equal(t, "req-1", meta.RequestID)
	assert.False(t, meta.Timestamp.IsZero())

	calls := f.generator.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "brighten", calls[0].Prompt)
	assert.Equal(t, project.OriginalImageURL, calls[0].ImageURL)
	assert.True(t, strings.HasPrefix(calls[0].OutputPath, objectstore.ProjectPrefix(f.userID, project.ID)))

	updated, err := f.projects.Get(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ImageURL, updated.ThumbnailURL.String)
}

func TestSubmit_SequenceIsMaxPlusOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, "seq")

	for want := 1; want <= 3; want++ {
		result, err := f.edits.Submit(ctx, f.userID, project.ID, "step", "")
		require.NoError(t, err)
		assert.Equal(t, want, result.Edit.EditNumber)
	}

	// Numbers freed below the maximum are not reused.
	edits, err := f.projects.ListEdits(ctx, f.userID, project.ID)
	require.NoError(t, err)
	require.NoError(t, f.history.DeleteEdit(ctx, f.userID, project.ID, edits[1].ID))

	result, err := f.edits.Submit(ctx, f.userID, project.ID, "step", "")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Edit.EditNumber)
}

func TestSubmit_EmptyPromptMakesNoRequest(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "quiet")
	objectsBefore := f.objects.Len()
	storeCallsBefore := f.store.Calls()

	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := f.edits.Submit(context.Background(), f.userID, project.ID, prompt, pngDataURL(t))
		assert.ErrorIs(t, err, services.ErrEmptyPrompt)
		assert.True(t, services.IsValidation(err))
	}

	assert.Empty(t, f.generator.calls())
	assert.Equal(t, objectsBefore, f.objects.Len())
	assert.Equal(t, storeCallsBefore, f.store.Calls())
}

func TestSubmit_UnknownProject(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "mine")

	_, err := f.edits.Submit(context.Background(), f.userID, uuid.New(), "brighten", "")
	assert.ErrorIs(t, err, services.ErrProjectNotFound)

	_, err = f.edits.Submit(context.Background(), uuid.New(), project.ID, "brighten", "")
	assert.ErrorIs(t, err, services.ErrProjectNotFound, "other users cannot edit the project")

	assert.Empty(t, f.generator.calls())
}

func TestSubmit_UsesWorkingImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, "working")

	_, err := f.edits.Submit(ctx, f.userID, project.ID, "remote", "https://cdn.example/current.png")
	require.NoError(t, err)

	_, err = f.edits.Submit(ctx, f.userID, project.ID, "inline", pngDataURL(t))
	require.NoError(t, err)

	calls := f.generator.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "https://cdn.example/current.png", calls[0].ImageURL)
	assert.True(t, strings.HasPrefix(calls[1].ImageURL, "https://objects.example/"+objectstore.ProjectPrefix(f.userID, project.ID)+"input-"))
}

func TestSubmit_InvalidWorkingImage(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "bad")

	_, err := f.edits.Submit(context.Background(), f.userID, project.ID, "brighten", "data:image/png;base64,aGVsbG8=")
	assert.ErrorIs(t, err, media.ErrNotImage)
	assert.True(t, services.IsValidation(err))
	assert.Empty(t, f.generator.calls())
}

func TestSubmit_GeneratorFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, "fail")
	f.generator.err = errors.New("model overloaded")

	_, err := f.edits.Submit(ctx, f.userID, project.ID, "brighten", "")
	require.Error(t, err)

	var upstream *services.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, services.StageGenerate, upstream.Stage)

	edits, err := f.projects.ListEdits(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.Empty(t, edits)

	current, err := f.projects.Get(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.OriginalImageURL, current.ThumbnailURL.String)
}

func TestSubmit_NoImageIsUpstream(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "empty")
	f.generator.err = imagegen.ErrNoImage

	_, err := f.edits.Submit(context.Background(), f.userID, project.ID, "brighten", "")
	assert.ErrorIs(t, err, imagegen.ErrNoImage)
	assert.True(t, services.IsUpstream(err))
}

func TestSubmit_UploadFailure(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "upload")
	edits := services.NewEditService(f.store, failingObjects{f.objects}, f.generator, f.locker, services.EditServiceConfig{}, zap.NewNop())

	_, err := edits.Submit(context.Background(), f.userID, project.ID, "brighten", pngDataURL(t))

	var upstream *services.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, services.StageUpload, upstream.Stage)
	assert.Empty(t, f.generator.calls())
}

func TestSubmit_PersistenceFailureStillReturnsImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, "optimistic")
	f.store.createEditErr = errors.New("connection reset")

	result, err := f.edits.Submit(ctx, f.userID, project.ID, "brighten", "")
	require.NoError(t, err)

	assert.False(t, result.Persisted)
	assert.Nil(t, result.Edit)
	assert.Equal(t, "https://gen.example/out-1.jpg", result.ImageURL)
	assert.Contains(t, result.PersistError, "connection reset")

	entries, err := f.history.History(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "nothing was recorded")
}

func TestSubmit_ThumbnailFailureKeepsEdit(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "thumb")
	f.store.updateErr = errors.New("timeout")

	result, err := f.edits.Submit(context.Background(), f.userID, project.ID, "brighten", "")
	require.NoError(t, err)

	assert.True(t, result.Persisted)
	require.NotNil(t, result.Edit)
	assert.Contains(t, result.PersistError, "thumbnail")
}

func TestSubmit_RetriesTakenEditNumber(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "race")
	f.store.takenBeforeWrite = 2

	result, err := f.edits.Submit(context.Background(), f.userID, project.ID, "brighten", "")
	require.NoError(t, err)
	assert.True(t, result.Persisted)
	assert.Equal(t, 1, result.Edit.EditNumber)
}

func TestSubmit_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	project := f.createProject(t, "race")
	f.store.takenBeforeWrite = 10

	result, err := f.edits.Submit(context.Background(), f.userID, project.ID, "brighten", "")
	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Equal(t, services.ErrSequenceConflict.Error(), result.PersistError)
}

func TestSubmit_OneEditAtATime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, "busy")
	f.generator.block = make(chan struct{})
	f.generator.entered = make(chan struct{}, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.edits.Submit(ctx, f.userID, project.ID, "first", "")
		assert.NoError(t, err)
	}()

	// The first submission holds the lock while the model call is running.
	select {
	case <-f.generator.entered:
	case <-time.After(time.Second):
		t.Fatal("first submission never reached the generator")
	}

	_, err := f.edits.Submit(ctx, f.userID, project.ID, "second", "")
	assert.ErrorIs(t, err, services.ErrEditInProgress)

	close(f.generator.block)
	wg.Wait()

	result, err := f.edits.Submit(ctx, f.userID, project.ID, "third", "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Edit.EditNumber)
}

func TestSubmit_ReadsProjectUnderLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.createProject(t, "chained")

	// A submission arriving while the first is loading the project must not
	// see the pre-edit image.
	var nestedErr error
	f.store.beforeGet = func() {
		_, nestedErr = f.edits.Submit(ctx, f.userID, project.ID, "racing", "")
	}

	first, err := f.edits.Submit(ctx, f.userID, project.ID, "first", "")
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, services.ErrEditInProgress)

	second, err := f.edits.Submit(ctx, f.userID, project.ID, "second", "")
	require.NoError(t, err)
	assert.Equal(t, first.Edit.OutputImageURL, second.Edit.InputImageURL)
	assert.Equal(t, 2, second.Edit.EditNumber)
}

func TestGenerate_Stateless(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.edits.Generate(ctx, f.userID, "a red fox", "")
	require.NoError(t, err)
	assert.Equal(t, "https://gen.example/out-1.jpg", result.ImageURL)

	result, err = f.edits.Generate(ctx, f.userID, "make it blue", pngDataURL(t))
	require.NoError(t, err)
	assert.NotEmpty(t, result.ImageURL)

	calls := f.generator.calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].ImageURL, "no image means text-to-image")
	assert.Contains(t, calls[1].ImageURL, "users/"+f.userID.String()+"/scratch/input-")

	_, err = f.edits.Generate(ctx, f.userID, " ", "")
	assert.ErrorIs(t, err, services.ErrEmptyPrompt)
	assert.Len(t, f.generator.calls(), 2)
}

func TestGenerate_NoStoreAccess(t *testing.T) {
	f := newFixture(t)
	before := f.store.Calls()

	_, err := f.edits.Generate(context.Background(), f.userID, "a red fox", "")
	require.NoError(t, err)
	assert.Equal(t, before, f.store.Calls())
}

var _ database.Store = (*flakyStore)(nil)
