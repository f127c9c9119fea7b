package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"thumbnail-editor-backend/internal/imagegen"
	"thumbnail-editor-backend/internal/models"
)

func TestGenerateImage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/generate-image", models.GenerateImageRequest{
		Prompt:    "a bold red title",
		ImageData: pngDataURL(t),
	})

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.GenerateImageResponse
	decode(t, w, &resp)
	assert.Equal(t, "https://gen.example/out-1.jpg", resp.ImageURL)
	assert.Equal(t, "a bold red title", resp.Prompt)
	assert.JSONEq(t, `{"imageUrl":"https://gen.example/out-1.jpg","prompt":"a bold red title"}`, w.Body.String())
}

func TestGenerateImage_VersionedPath(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/generate-image", models.GenerateImageRequest{Prompt: "sunset"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerateImage_PromptRequired(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{}`, `{"prompt":"   "}`, `not json`} {
		w := s.do(http.MethodPost, "/api/generate-image", body)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Prompt is required"}`, w.Body.String())
	}
	assert.Zero(t, s.generator.calls)
}

func TestGenerateImage_NoImage(t *testing.T) {
	s := newTestServer(t)
	s.generator.err = fmt.Errorf("fal response: %w", imagegen.ErrNoImage)

	w := s.do(http.MethodPost, "/api/generate-image", models.GenerateImageRequest{Prompt: "sunset"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"No image generated"}`, w.Body.String())
}

func TestGenerateImage_ProviderFailure(t *testing.T) {
	s := newTestServer(t)
	s.generator.err = errors.New("fal request failed: status 503")

	w := s.do(http.MethodPost, "/api/generate-image", models.GenerateImageRequest{Prompt: "sunset"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp models.GenerateImageErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "Failed to generate image", resp.Error)
	assert.Contains(t, resp.Details, "status 503")
}

func TestGenerateImage_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.doAs("", http.MethodPost, "/api/generate-image", models.GenerateImageRequest{Prompt: "sunset"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, s.generator.calls)
}
