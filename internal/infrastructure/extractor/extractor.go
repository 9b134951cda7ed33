package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

const (
	MIMEPDF       = "application/pdf"
	MIMEPNG       = "image/png"
	MIMEJPEG      = "image/jpeg"
	MIMETIFF      = "image/tiff"
	MIMEDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPlainText = "text/plain"
)

// strategy returns text fragments in document order.
type strategy func(ctx context.Context, data []byte) ([]string, error)

// Extractor dispatches on the detected MIME type. It never mutates data and
// absorbs parser failures, so repeated calls on the same bytes are safe.
type Extractor struct {
	strategies map[string]strategy
	logger     *slog.Logger
}

// New builds the dispatcher. A nil ocr disables image extraction.
func New(ocr ports.OCREngine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		strategies: map[string]strategy{
			MIMEPDF:       pdfText,
			MIMEDOCX:      docxText,
			MIMEXLSX:      spreadsheetText,
			MIMEPlainText: plainText,
		},
		logger: logger,
	}
	if ocr != nil {
		image := imageText(ocr)
		e.strategies[MIMEPNG] = image
		e.strategies[MIMEJPEG] = image
		e.strategies[MIMETIFF] = image
	}
	return e
}

// Supports reports whether mimeType has an extraction strategy.
func (e *Extractor) Supports(mimeType string) bool {
	_, ok := e.strategies[mimeType]
	return ok
}

func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (string, bool) {
	extract, ok := e.strategies[mimeType]
	if !ok {
		e.logger.Warn("unsupported_mime", "mime_type", mimeType)
		return "", false
	}

	parts, err := safeRun(ctx, extract, data)
	if err != nil {
		e.logger.Error("extraction_failed",
			"mime_type", mimeType,
			"error", fmt.Sprintf("extract %s: %v", mimeType, err),
		)
		return "", false
	}

	text := joinFragments(parts)
	if text == "" {
		return "", false
	}
	e.logger.Debug("text_extracted", "mime_type", mimeType, "chars", len([]rune(text)))
	return text, true
}

// safeRun converts parser panics into errors; several parsers panic on
// malformed input instead of returning an error.
func safeRun(ctx context.Context, extract strategy, data []byte) (parts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			parts = nil
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return extract(ctx, data)
}

func joinFragments(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
