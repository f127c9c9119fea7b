package services_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/imagegen"
	"thumbnail-editor-backend/internal/lock"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/objectstore"
	"thumbnail-editor-backend/internal/services"
)

// fakeGenerator returns numbered output URLs and records every request.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []imagegen.Request
	err      error
	// block, when set, is waited on before answering. entered is signalled
	// once the call is parked on block.
	block   chan struct{}
	entered chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, req imagegen.Request) (*imagegen.Result, error) {
	if g.block != nil {
		if g.entered != nil {
			g.entered <- struct{}{}
		}
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &imagegen.Result{
		ImageURL:  fmt.Sprintf("https://gen.example/out-%d.jpg", len(g.requests)),
		Provider:  "fake",
		Model:     "fake-model",
		RequestID: fmt.Sprintf("req-%d", len(g.requests)),
	}, nil
}

func (g *fakeGenerator) calls() []imagegen.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]imagegen.Request(nil), g.requests...)
}

// flakyStore wraps the memory store with injectable failures and call counts.
type flakyStore struct {
	*database.MemoryStore

	mu               sync.Mutex
	calls            int
	createEditErr    error
	takenBeforeWrite int
	updateErr        error
	// beforeGet runs once, ahead of the next GetProject.
	beforeGet func()
}

func (s *flakyStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *flakyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *flakyStore) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	s.count()
	s.mu.Lock()
	hook := s.beforeGet
	s.beforeGet = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return s.MemoryStore.GetProject(ctx, projectID, userID)
}

func (s *flakyStore) MaxEditNumber(ctx context.Context, projectID uuid.UUID) (int, error) {
	s.count()
	return s.MemoryStore.MaxEditNumber(ctx, projectID)
}

func (s *flakyStore) CreateEdit(ctx context.Context, edit *models.Edit) (*models.Edit, error) {
	s.count()
	s.mu.Lock()
	if s.createEditErr != nil {
		err := s.createEditErr
		s.mu.Unlock()
		return nil, err
	}
	if s.takenBeforeWrite > 0 {
		s.takenBeforeWrite--
		s.mu.Unlock()
		return nil, database.ErrEditNumberTaken
	}
	s.mu.Unlock()
	return s.MemoryStore.CreateEdit(ctx, edit)
}

func (s *flakyStore) UpdateProject(ctx context.Context, projectID, userID uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	s.count()
	if s.updateErr != nil && update.ThumbnailURL != nil {
		return nil, s.updateErr
	}
	return s.MemoryStore.UpdateProject(ctx, projectID, userID, update)
}

// failingObjects fails every upload.
type failingObjects struct {
	*objectstore.MemoryStore
}

func (failingObjects) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

type fixture struct {
	store     *flakyStore
	objects   *objectstore.MemoryStore
	generator *fakeGenerator
	locker    *lock.MemoryLocker
	edits     *services.EditService
	history   *services.HistoryService
	projects  *services.ProjectService
	userID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     &flakyStore{MemoryStore: database.NewMemoryStore()},
		objects:   objectstore.NewMemoryStore("https://objects.example"),
		generator: &fakeGenerator{},
		locker:    lock.NewMemoryLocker(),
		userID:    uuid.New(),
	}
	log := zap.NewNop()
	f.edits = services.NewEditService(f.store, f.objects, f.generator, f.locker, services.EditServiceConfig{}, log)
	f.history = services.NewHistoryService(f.store, log)
	f.projects = services.NewProjectService(f.store, f.objects, 0, log)
	return f
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (f *fixture) createProject(t *testing.T, name string) *models.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), f.userID, services.CreateProjectInput{
		Name:      name,
		ImageData: pngDataURL(t),
		FileName:  name + ".png",
	})
	require.NoError(t, err)
	return p
}
