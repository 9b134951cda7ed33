package extractor

import (
	"context"

	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

func imageText(ocr ports.OCREngine) strategy {
	return func(ctx context.Context, data []byte) ([]string, error) {
		text, err := ocr.Recognize(ctx, data)
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	}
}
