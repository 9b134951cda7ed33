package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

func TestEncodeEventCarriesRecordFields(t *testing.T) {
	createdAt := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	payload, err := encodeEvent(domain.ClassificationRecord{
		ID:           "rec-1",
		Filename:     "passport_scan.png",
		DeclaredMIME: "image/jpeg",
		DetectedMIME: "image/png",
		SizeBytes:    512,
		Category:     "passport",
		Tier:         domain.TierFilename,
		Duration:     2500 * time.Microsecond,
		CreatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}

	var event ClassifiedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Tier != "filename" || event.DurationMS != 2.5 || event.Category != "passport" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.DeclaredMIME != "image/jpeg" || event.DetectedMIME != "image/png" {
		t.Fatalf("unexpected mime fields: declared=%q detected=%q", event.DeclaredMIME, event.DetectedMIME)
	}
	if !event.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected created_at: %v", event.CreatedAt)
	}
}

func TestClassifyNATSErrorRetriesConnectionLoss(t *testing.T) {
	class := classifyNATSError(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !class.Retryable || !class.RecordFailure {
		t.Fatalf("expected retryable failure, got %+v", class)
	}

	class = classifyNATSError(context.Canceled)
	if class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must be neither retried nor recorded, got %+v", class)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrTimeout))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}

	errBad := errors.New("bad subject")
	if err := wrapTemporaryIfNeeded(errBad); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("permanent error wrapped as temporary: %v", err)
	}
}
