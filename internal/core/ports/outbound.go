package ports

import (
	"context"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

// MIMESniffer reports a content type from raw bytes, independent of any filename.
type MIMESniffer interface {
	Sniff(data []byte) string
}

// TextExtractor turns raw bytes of a detected type into plain text.
// ok is false when the type is unsupported, parsing failed or no text was found.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (text string, ok bool)
}

// OCREngine recognizes text in an encoded raster image.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// LanguageModel is the remote language-understanding service.
type LanguageModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateWithFile uploads the file at path and prompts against it.
	GenerateWithFile(ctx context.Context, prompt, path, mimeType string) (string, error)
}

// ScratchSpace hands out transient, uniquely named files.
type ScratchSpace interface {
	// Write persists data and returns its path plus a release func that
	// removes the file. release is safe to call more than once.
	Write(ctx context.Context, data []byte, suffix string) (path string, release func(), err error)
}

// VerdictSink receives finished classifications (audit log, events).
type VerdictSink interface {
	RecordClassification(ctx context.Context, record domain.ClassificationRecord) error
}

// PipelineObserver receives tier and pipeline timings.
type PipelineObserver interface {
	ObserveTier(tier domain.Tier, outcome domain.TierOutcome, elapsed time.Duration)
	ObserveClassification(verdict domain.Verdict, elapsed time.Duration)
}

// ClassificationHistory reads back recorded classifications, newest first.
type ClassificationHistory interface {
	ListRecent(ctx context.Context, limit int) ([]domain.ClassificationRecord, error)
}
