package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/postgrest-go"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/models"
	"thumbnail-editor-backend/internal/supabase"
)

// newRestStore points a RestStore at handler, which plays PostgREST.
func newRestStore(t *testing.T, handler http.HandlerFunc) *supabase.RestStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return supabase.NewRestStoreWithClient(postgrest.NewClient(srv.URL, "public", nil))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestRestStore_ListProjects(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()

	store := newRestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/projects"), r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "eq."+userID.String(), q.Get("user_id"))
		assert.Equal(t, "eq.false", q.Get("is_archived"))
		assert.True(t, strings.HasPrefix(q.Get("order"), "updated_at.desc"), q.Get("order"))

		writeJSON(w, http.StatusOK, `[{
			"id": "`+projectID.String()+`",
			"user_id": "`+userID.String()+`",
			"name": "Thumb",
			"description": null,
			"original_image_url": "https://img/a.png",
			"thumbnail_url": "https://img/b.png",
			"original_image_metadata": {"fileName": "a.png"},
			"project_settings": null,
			"is_archived": false,
			"created_at": "2025-01-02T03:04:05Z",
			"updated_at": "2025-01-02T03:04:06Z"
		}]`)
	})

	projects, err := store.ListProjects(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, projectID, p.ID)
	assert.Equal(t, "Thumb", p.Name)
	assert.False(t, p.Description.Valid)
	assert.Equal(t, "https://img/b.png", p.ThumbnailURL.String)
	assert.JSONEq(t, `{"fileName":"a.png"}`, string(p.OriginalImageMetadata))
	assert.Nil(t, p.ProjectSettings)
	assert.Equal(t, 2025, p.CreatedAt.Year())
}

func TestRestStore_GetProjectNotFound(t *testing.T) {
	store := newRestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotAcceptable, `{
			"code": "PGRST116",
			"details": "The result contains 0 rows",
			"hint": null,
			"message": "JSON object requested, multiple (or no) rows returned"
		}`)
	})

	_, err := store.GetProject(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRestStore_CreateEditConflict(t *testing.T) {
	store := newRestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/edits"), r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 2, body["edit_number"])

		writeJSON(w, http.StatusConflict, `{
			"code": "23505",
			"details": "Key (project_id, edit_number)=(x, 2) already exists.",
			"hint": null,
			"message": "duplicate key value violates unique constraint \"edits_project_id_edit_number_key\""
		}`)
	})

	_, err := store.CreateEdit(context.Background(), &models.Edit{
		ProjectID:  uuid.New(),
		EditNumber: 2,
		Prompt:     "brighten",
	})
	assert.ErrorIs(t, err, database.ErrEditNumberTaken)
}

func TestRestStore_ErrorCodeNotInMessage(t *testing.T) {
	store := newRestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{
			"code": "22P02",
			"details": null,
			"hint": null,
			"message": "invalid input syntax for type uuid: \"PGRST116-23505\""
		}`)
	})

	_, err := store.CreateEdit(context.Background(), &models.Edit{
		ProjectID:  uuid.New(),
		EditNumber: 1,
		Prompt:     "brighten",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, database.ErrEditNumberTaken)
	assert.NotErrorIs(t, err, database.ErrNotFound)
	assert.Contains(t, err.Error(), "22P02")

	_, err = store.GetProject(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, database.ErrNotFound)
}

func TestRestStore_MaxEditNumber(t *testing.T) {
	projectID := uuid.New()

	for rows, want := range map[string]int{`[{"edit_number": 7}]`: 7, `[]`: 0} {
		store := newRestStore(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "eq."+projectID.String(), q.Get("project_id"))
			assert.Equal(t, "edit_number", q.Get("select"))
			assert.Equal(t, "1", q.Get("limit"))
			writeJSON(w, http.StatusOK, rows)
		})

		max, err := store.MaxEditNumber(context.Background(), projectID)
		require.NoError(t, err)
		assert.Equal(t, want, max)
	}
}

func TestRestStore_DeleteEditMissing(t *testing.T) {
	store := newRestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusOK, `[]`)
	})

	err := store.DeleteEdit(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, database.ErrNotFound)
}
