package ports

import (
	"context"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

// DocumentClassifier is the inbound contract for the classification pipeline.
// Ordinary classification failures resolve to domain.UnknownCategory; an error
// is returned only for internal faults.
type DocumentClassifier interface {
	Classify(ctx context.Context, doc domain.Document) (domain.Verdict, error)
}

// TaxonomyReader exposes the configured category set.
type TaxonomyReader interface {
	Categories() []string
}
