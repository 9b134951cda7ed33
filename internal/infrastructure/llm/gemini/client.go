package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/resilience"
)

const artifactCleanupTimeout = 10 * time.Second

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// HTTPClient overrides the SDK transport; nil uses the SDK default.
	HTTPClient *http.Client
}

// Client is a LanguageModel backed by the Gemini API.
type Client struct {
	client   *genai.Client
	model    string
	executor *resilience.Executor
	logger   *slog.Logger
}

func New(ctx context.Context, cfg Config, executor *resilience.Executor, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.WrapError(domain.ErrRemoteDisabled, "gemini client", fmt.Errorf("api key is empty"))
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "gemini client", fmt.Errorf("model is empty"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client:   client,
		model:    cfg.Model,
		executor: executor,
		logger:   logger,
	}, nil
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	var reply string
	err := c.execute(ctx, "generate_text", func(callCtx context.Context) error {
		resp, err := c.client.Models.GenerateContent(callCtx, c.model, genai.Text(prompt), nil)
		if err != nil {
			return err
		}
		reply = resp.Text()
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// GenerateWithFile uploads path as a remote artifact, prompts against it and
// deletes the artifact afterwards whatever the outcome.
func (c *Client) GenerateWithFile(ctx context.Context, prompt, path, mimeType string) (string, error) {
	var file *genai.File
	err := c.execute(ctx, "upload_file", func(callCtx context.Context) error {
		uploaded, err := c.client.Files.UploadFromPath(callCtx, path, &genai.UploadFileConfig{MIMEType: mimeType})
		if err != nil {
			return err
		}
		file = uploaded
		return nil
	})
	if err != nil {
		return "", err
	}
	defer c.deleteArtifact(file.Name)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	var reply string
	err = c.execute(ctx, "generate_file", func(callCtx context.Context) error {
		resp, err := c.client.Models.GenerateContent(callCtx, c.model, contents, nil)
		if err != nil {
			return err
		}
		reply = resp.Text()
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (c *Client) deleteArtifact(name string) {
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), artifactCleanupTimeout)
	defer cancel()

	if _, err := c.client.Files.Delete(ctx, name, nil); err != nil {
		c.logger.Warn("remote_artifact_cleanup_failed", "file", name, "error", err.Error())
	}
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini."+operation, call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded("gemini "+operation, err)
	}
	return nil
}
