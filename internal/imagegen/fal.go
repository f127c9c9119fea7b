package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ProviderFal = "fal"

// FalClient calls fal.ai's synchronous run endpoint.
type FalClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type falRequest struct {
	Prompt       string   `json:"prompt"`
	NumImages    int      `json:"num_images"`
	OutputFormat string   `json:"output_format"`
	ImageURLs    []string `json:"image_urls,omitempty"`
}

type falImage struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

type falResponse struct {
	Images      []falImage `json:"images"`
	Description string     `json:"description"`
}

func NewFalClient(baseURL, apiKey, model string, timeout time.Duration) *FalClient {
	return &FalClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   strings.Trim(model, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// endpoint picks the edit variant of the model when there is an input image.
func (c *FalClient) endpoint(withImage bool) string {
	model := c.model
	if withImage && !strings.HasSuffix(model, "/edit") {
		model += "/edit"
	}
	return model
}

func (c *FalClient) Generate(ctx context.Context, req Request) (*Result, error) {
	body := falRequest{
		Prompt:       req.Prompt,
		NumImages:    1,
		OutputFormat: "jpeg",
	}
	if req.ImageURL != "" {
		body.ImageURLs = []string{req.ImageURL}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	model := c.endpoint(req.ImageURL != "")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Key "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fal request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result falResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if len(result.Images) == 0 || result.Images[0].URL == "" {
		return nil, ErrNoImage
	}

	return &Result{
		ImageURL:    result.Images[0].URL,
		Description: result.Description,
		Provider:    ProviderFal,
		Model:       model,
		RequestID:   resp.Header.Get("X-Fal-Request-Id"),
	}, nil
}
