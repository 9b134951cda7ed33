package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/resilience"
)

// Client talks to a local Ollama server. File prompts are limited to images,
// which are sent inline to a vision-capable model.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	HTTPTimeout        time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string, options Options) *Client {
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "generate_text", c.request(prompt))
}

func (c *Client) GenerateWithFile(ctx context.Context, prompt, path, mimeType string) (string, error) {
	if !inlineImage(mimeType) {
		return "", domain.WrapError(domain.ErrUnsupportedContent, "ollama generate_file", fmt.Errorf("mime type %q", mimeType))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read upload %s: %w", path, err)
	}
	req := c.request(prompt)
	req.Images = []string{base64.StdEncoding.EncodeToString(raw)}
	return c.generate(ctx, "generate_file", req)
}

func (c *Client) request(prompt string) generateRequest {
	return generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	}
}

func (c *Client) generate(ctx context.Context, operation string, req generateRequest) (string, error) {
	var reply string
	call := func(callCtx context.Context) error {
		out, err := c.postGenerate(callCtx, operation, req)
		if err != nil {
			return err
		}
		reply = out
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama "+operation, err)
	}
	return strings.TrimSpace(reply), nil
}

func inlineImage(mimeType string) bool {
	switch mimeType {
	case "image/png", "image/jpeg":
		return true
	default:
		return false
	}
}
