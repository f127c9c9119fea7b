package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/config"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/handlers"
	"thumbnail-editor-backend/internal/imagegen"
	"thumbnail-editor-backend/internal/lock"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/objectstore"
	"thumbnail-editor-backend/internal/services"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGenerator) Generate(ctx context.Context, req imagegen.Request) (*imagegen.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &imagegen.Result{
		ImageURL: fmt.Sprintf("https://gen.example/out-%d.jpg", g.calls),
		Provider: "stub",
		Model:    "stub-model",
	}, nil
}

type stubAuth struct {
	sent      []string
	signedOut []string
	sendErr   error
	verifyErr error
}

func (a *stubAuth) SendOTP(ctx context.Context, email string) error {
	a.sent = append(a.sent, email)
	return a.sendErr
}

func (a *stubAuth) VerifyOTP(ctx context.Context, email, code string) (*models.SessionResponse, error) {
	if a.verifyErr != nil {
		return nil, a.verifyErr
	}
	return &models.SessionResponse{
		AccessToken: "session-token",
		TokenType:   "bearer",
		User:        models.UserResponse{ID: uuid.New().String(), Email: email},
	}, nil
}

func (a *stubAuth) SignOut(ctx context.Context, accessToken string) error {
	a.signedOut = append(a.signedOut, accessToken)
	return nil
}

type testServer struct {
	router    *gin.Engine
	cfg       *config.Config
	generator *stubGenerator
	auth      *stubAuth
	store     *database.MemoryStore
	userID    uuid.UUID
	token     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{
		cfg: &config.Config{
			SupabaseJWTSecret: testSecret,
			Environment:       "test",
		},
		generator: &stubGenerator{},
		auth:      &stubAuth{},
		store:     database.NewMemoryStore(),
		userID:    uuid.New(),
	}
	s.token = signToken(t, s.userID)

	log := zap.NewNop()
	objects := objectstore.NewMemoryStore("https://objects.example")
	edits := services.NewEditService(s.store, objects, s.generator, lock.NewMemoryLocker(), services.EditServiceConfig{}, log)
	history := services.NewHistoryService(s.store, log)
	projects := services.NewProjectService(s.store, objects, 0, log)

	s.router = handlers.NewRouter(s.cfg, log, handlers.Handlers{
		Health:   handlers.NewHealthHandler(nil),
		Auth:     handlers.NewAuthHandler(s.auth, s.cfg, log),
		Projects: handlers.NewProjectsHandler(projects),
		Edits:    handlers.NewEditsHandler(edits, history, projects),
		Generate: handlers.NewGenerateHandler(edits),
	})
	return s
}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "editor@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// do sends body as JSON with the server's token and returns the recorder.
func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	return s.doAs(s.token, method, path, body)
}

func (s *testServer) doAs(token, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (s *testServer) createProject(t *testing.T, name string) models.ProjectResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/projects", models.CreateProjectRequest{
		Name:      name,
		ImageData: pngDataURL(t),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var project models.ProjectResponse
	decode(t, w, &project)
	return project
}
