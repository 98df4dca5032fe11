package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/facegate/facegate/internal/fault"
)

const defaultEmbeddingURL = "http://localhost:8000"

// Embedder computes a face embedding for raw image bytes. An empty
// vector means the image contains no usable face.
type Embedder interface {
	Embed(ctx context.Context, imageData []byte) ([]float32, error)
}

// EmbeddingClient talks to the face embedding server over HTTP.
type EmbeddingClient struct {
	baseURL string
	client  *http.Client
}

// NewEmbeddingClient creates a client for the embedding server.
func NewEmbeddingClient(baseURL string) *EmbeddingClient {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &EmbeddingClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// embeddingResponse represents the response from the embedding server.
type embeddingResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// Embed uploads the image as a multipart form and returns the embedding
// vector the server computed for the dominant face.
func (c *EmbeddingClient) Embed(ctx context.Context, imageData []byte) ([]float32, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", &buf)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, "could not reach embedding server")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, "could not read embedding response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fault.Newf(fault.CodeService, "embedding request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result embeddingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fault.Wrap(err, fault.CodeService, "could not unmarshal embedding response")
	}
	return result.Embedding, nil
}
