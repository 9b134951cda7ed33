package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const generatePath = "/api/generate"

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
	// Options carries sampling parameters; temperature is pinned to 0.
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// postGenerate sends one non-streaming generate request and returns the raw
// model reply.
func (c *Client) postGenerate(ctx context.Context, operation string, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", newHTTPStatusError(operation, payload.Model, resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s response: %w", operation, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama %s model %s: %s", operation, payload.Model, out.Error)
	}
	if !out.Done {
		return "", errors.New("ollama " + operation + ": incomplete response")
	}
	return out.Response, nil
}

// newHTTPStatusError prefers the "error" field of Ollama's JSON error body and
// falls back to the raw text.
func newHTTPStatusError(operation, model string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	message := strings.TrimSpace(string(raw))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		message = body.Error
	}
	return &HTTPStatusError{
		Operation:  operation,
		Model:      model,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       message,
	}
}
