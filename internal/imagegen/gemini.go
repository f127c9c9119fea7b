package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const ProviderGemini = "gemini"

// Uploader is the part of the object store the Gemini client needs to host
// the bytes the model returns.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// GeminiClient calls a Gemini image model directly. Gemini answers with
// inline image bytes, so results are uploaded before their URL is returned.
type GeminiClient struct {
	client     *genai.Client
	model      string
	uploader   Uploader
	httpClient *http.Client
	maxBytes   int64
}

// NewGeminiClient builds a client for model. Input images larger than
// maxImageBytes are refused; extra options are passed to the genai client.
func NewGeminiClient(ctx context.Context, apiKey, model string, uploader Uploader, timeout time.Duration, maxImageBytes int64, opts ...option.ClientOption) (*GeminiClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}

	return &GeminiClient{
		client:   client,
		model:    model,
		uploader: uploader,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBytes: maxImageBytes,
	}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.OutputPath == "" {
		return nil, fmt.Errorf("gemini generation needs an output path")
	}

	parts := make([]genai.Part, 0, 2)
	if req.ImageURL != "" {
		blob, err := g.download(ctx, req.ImageURL)
		if err != nil {
			return nil, err
		}
		parts = append(parts, blob)
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	var (
		image       *genai.Blob
		description strings.Builder
	)
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Blob:
				if image == nil && strings.HasPrefix(p.MIMEType, "image/") {
					blob := p
					image = &blob
				}
			case genai.Text:
				description.WriteString(string(p))
			}
		}
		if image != nil {
			break
		}
	}
	if image == nil {
		return nil, ErrNoImage
	}

	ext := ".png"
	if mt := mimetype.Lookup(image.MIMEType); mt != nil && mt.Extension() != "" {
		ext = mt.Extension()
	}
	url, err := g.uploader.Upload(ctx, req.OutputPath+ext, image.MIMEType, image.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store generated image: %w", err)
	}

	return &Result{
		ImageURL:    url,
		Description: strings.TrimSpace(description.String()),
		Provider:    ProviderGemini,
		Model:       g.model,
	}, nil
}

func (g *GeminiClient) download(ctx context.Context, url string) (genai.Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("failed to download input image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return genai.Blob{}, fmt.Errorf("failed to download input image: status %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if g.maxBytes > 0 {
		body = io.LimitReader(resp.Body, g.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("failed to read input image: %w", err)
	}
	if g.maxBytes > 0 && int64(len(data)) > g.maxBytes {
		return genai.Blob{}, fmt.Errorf("input image exceeds %d bytes", g.maxBytes)
	}

	return genai.Blob{MIMEType: mimetype.Detect(data).String(), Data: data}, nil
}
