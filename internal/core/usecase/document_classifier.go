package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

// DocumentClassifier uploads the raw document to the language model when
// text extraction gave nothing usable.
type DocumentClassifier struct {
	model    ports.LanguageModel
	scratch  ports.ScratchSpace
	taxonomy *domain.Taxonomy
	cfg      RemoteConfig
	logger   *slog.Logger
}

func NewDocumentClassifier(
	model ports.LanguageModel,
	scratch ports.ScratchSpace,
	taxonomy *domain.Taxonomy,
	cfg RemoteConfig,
	logger *slog.Logger,
) *DocumentClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentClassifier{
		model:    model,
		scratch:  scratch,
		taxonomy: taxonomy,
		cfg:      cfg.normalize(),
		logger:   logger,
	}
}

// Classify has the same result contract as TextClassifier.Classify.
func (c *DocumentClassifier) Classify(ctx context.Context, doc domain.Document, mimeType string) (string, bool) {
	if c.model == nil || c.scratch == nil {
		c.logger.Debug("remote_call_skipped", "tier", domain.TierDocument, "reason", domain.ErrRemoteDisabled.Error())
		return "", false
	}
	if doc.Size() == 0 {
		c.logger.Warn("remote_call_skipped", "tier", domain.TierDocument, "filename", doc.Filename, "error", "empty payload")
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reply, err := c.upload(callCtx, doc, mimeType)
	if err != nil {
		c.logger.Error("remote_call_failed",
			"tier", domain.TierDocument,
			"filename", doc.Filename,
			"error", fmt.Sprintf("document classification: %v", err),
		)
		return "", false
	}

	category, recognized := resolveAnswer(c.taxonomy, reply)
	if !recognized {
		c.logger.Warn("unrecognized_category", "tier", domain.TierDocument, "reply", domain.NormalizeCategory(reply))
	}
	return category, true
}

func (c *DocumentClassifier) upload(ctx context.Context, doc domain.Document, mimeType string) (string, error) {
	path, release, err := c.scratch.Write(ctx, doc.Data, fileSuffix(doc.Filename))
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	defer release()

	c.logger.Debug("uploading_document", "filename", doc.Filename, "mime_type", mimeType, "path", path)
	return c.model.GenerateWithFile(ctx, buildFilePrompt(c.taxonomy.Categories()), path, mimeType)
}

// fileSuffix keeps a short, safe extension so the remote side can infer type.
func fileSuffix(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
