package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// infoLogger captures records at Info level and above.
func infoLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})), &buf
}

func testTaxonomy() *domain.Taxonomy {
	taxonomy, err := domain.NewTaxonomy(
		[]string{"drivers_licence", "bank_statement", "invoice", "passport", "utility_bill"},
		[]domain.Rule{
			{Category: "drivers_licence", Keywords: []string{"drivers_licence", "driver licence", "dl"}},
			{Category: "bank_statement", Keywords: []string{"bank_statement", "bank statement"}},
			{Category: "invoice", Keywords: []string{"invoice", "inv"}},
			{Category: "passport", Keywords: []string{"passport"}},
			{Category: "utility_bill", Keywords: []string{"utility_bill", "utility bill"}},
		},
	)
	if err != nil {
		panic(err)
	}
	return taxonomy
}

type modelFake struct {
	mu sync.Mutex

	textReply string
	textErr   error
	fileReply string
	fileErr   error

	textCalls   int
	fileCalls   int
	lastPrompt  string
	lastPath    string
	lastMIME    string
	fileExisted bool
}

func (f *modelFake) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls++
	f.lastPrompt = prompt
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.textReply, nil
}

func (f *modelFake) GenerateWithFile(_ context.Context, prompt, path, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls++
	f.lastPrompt = prompt
	f.lastPath = path
	f.lastMIME = mimeType
	_, statErr := os.Stat(path)
	f.fileExisted = statErr == nil
	if f.fileErr != nil {
		return "", f.fileErr
	}
	return f.fileReply, nil
}

type sniffFake struct {
	mime string
}

func (f sniffFake) Sniff([]byte) string {
	if f.mime == "" {
		return "application/octet-stream"
	}
	return f.mime
}

type extractFake struct {
	text  string
	calls int
}

func (f *extractFake) Extract(context.Context, []byte, string) (string, bool) {
	f.calls++
	return f.text, f.text != ""
}

type scratchFake struct {
	dir      string
	released int
	err      error
}

func (f *scratchFake) Write(_ context.Context, data []byte, suffix string) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	path := filepath.Join(f.dir, "upload"+suffix)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, err
	}
	return path, func() {
		f.released++
		_ = os.Remove(path)
	}, nil
}

type sinkFake struct {
	records []domain.ClassificationRecord
	err     error
}

func (f *sinkFake) RecordClassification(_ context.Context, record domain.ClassificationRecord) error {
	f.records = append(f.records, record)
	return f.err
}

type observerFake struct {
	tiers []domain.TierOutcome
	final []domain.Verdict
}

func (f *observerFake) ObserveTier(_ domain.Tier, outcome domain.TierOutcome, _ time.Duration) {
	f.tiers = append(f.tiers, outcome)
}

func (f *observerFake) ObserveClassification(v domain.Verdict, _ time.Duration) {
	f.final = append(f.final, v)
}

var errRemoteDown = errors.New("remote down")
