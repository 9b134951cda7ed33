package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

type RemoteConfig struct {
	// SnippetChars caps the text sent to the model, in characters.
	SnippetChars int
	// Timeout is the hard cap on one remote classification, upload included.
	Timeout time.Duration
}

func (c RemoteConfig) normalize() RemoteConfig {
	out := c
	if out.SnippetChars <= 0 {
		out.SnippetChars = defaultSnippetChars
	}
	if out.Timeout <= 0 {
		out.Timeout = 60 * time.Second
	}
	return out
}

// TextClassifier asks the language model to pick a category for extracted text.
type TextClassifier struct {
	model    ports.LanguageModel
	taxonomy *domain.Taxonomy
	cfg      RemoteConfig
	logger   *slog.Logger
}

func NewTextClassifier(model ports.LanguageModel, taxonomy *domain.Taxonomy, cfg RemoteConfig, logger *slog.Logger) *TextClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextClassifier{
		model:    model,
		taxonomy: taxonomy,
		cfg:      cfg.normalize(),
		logger:   logger,
	}
}

// Classify returns the validated category, or domain.UnknownCategory for an
// answer outside the category set. ok is false when no answer was obtained.
func (c *TextClassifier) Classify(ctx context.Context, text string) (string, bool) {
	if c.model == nil {
		c.logger.Debug("remote_call_skipped", "tier", domain.TierContent, "reason", domain.ErrRemoteDisabled.Error())
		return "", false
	}
	if text == "" {
		c.logger.Warn("remote_call_skipped", "tier", domain.TierContent, "error", "no text to classify")
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	prompt := buildTextPrompt(c.taxonomy.Categories(), text, c.cfg.SnippetChars)
	reply, err := c.model.GenerateText(callCtx, prompt)
	if err != nil {
		c.logger.Error("remote_call_failed",
			"tier", domain.TierContent,
			"error", fmt.Sprintf("text classification: %v", err),
		)
		return "", false
	}

	category, recognized := resolveAnswer(c.taxonomy, reply)
	if !recognized {
		c.logger.Warn("unrecognized_category", "tier", domain.TierContent, "reply", domain.NormalizeCategory(reply))
	}
	return category, true
}
