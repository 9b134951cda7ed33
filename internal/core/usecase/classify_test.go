package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

type pipelineFixture struct {
	model     *modelFake
	extractor *extractFake
	scratch   *scratchFake
	sink      *sinkFake
	observer  *observerFake
	uc        *ClassifyUseCase
}

func newPipelineFixture(t *testing.T, model *modelFake, extracted string, tiers ...domain.Tier) *pipelineFixture {
	t.Helper()
	taxonomy := testTaxonomy()
	f := &pipelineFixture{
		model:     model,
		extractor: &extractFake{text: extracted},
		scratch:   &scratchFake{dir: t.TempDir()},
		sink:      &sinkFake{},
		observer:  &observerFake{},
	}
	uc, err := NewClassifyUseCase(ClassifyDependencies{
		Taxonomy:           taxonomy,
		Tiers:              tiers,
		Sniffer:            sniffFake{mime: "application/pdf"},
		Extractor:          f.extractor,
		TextClassifier:     NewTextClassifier(model, taxonomy, RemoteConfig{}, discardLogger()),
		DocumentClassifier: NewDocumentClassifier(model, f.scratch, taxonomy, RemoteConfig{}, discardLogger()),
		Sinks:              []ports.VerdictSink{f.sink},
		Observer:           f.observer,
		Logger:             discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewClassifyUseCase() error = %v", err)
	}
	f.uc = uc
	return f
}

func TestClassifyFilenameShortCircuitsRemoteTiers(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{textReply: "passport", fileReply: "passport"}, "some text")

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "my_invoice_2024.pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != "invoice" || verdict.Tier != domain.TierFilename {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if f.model.textCalls+f.model.fileCalls != 0 {
		t.Fatalf("expected zero remote calls, got text=%d file=%d", f.model.textCalls, f.model.fileCalls)
	}
	if f.extractor.calls != 0 {
		t.Fatalf("expected no extraction, got %d", f.extractor.calls)
	}
}

func TestClassifyContentTierUsesOneTextCall(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{textReply: "invoice"}, "INVOICE No. 1001 Amount due: 120.00")

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "scan001.pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != "invoice" || verdict.Tier != domain.TierContent {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if f.model.textCalls != 1 || f.model.fileCalls != 0 {
		t.Fatalf("expected exactly one text call, got text=%d file=%d", f.model.textCalls, f.model.fileCalls)
	}
}

func TestClassifyFallsThroughToWholeDocument(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{fileReply: "bank_statement"}, "")

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "scan001.pdf", Data: []byte("corrupt")})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != "bank_statement" || verdict.Tier != domain.TierDocument {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if f.model.textCalls != 0 || f.model.fileCalls != 1 {
		t.Fatalf("expected one file call, got text=%d file=%d", f.model.textCalls, f.model.fileCalls)
	}
	if f.model.lastMIME != "application/pdf" {
		t.Fatalf("expected detected mime as upload hint, got %s", f.model.lastMIME)
	}
}

func TestClassifySentinelFromTextTierStillTriesDocumentTier(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{textReply: "recipe", fileReply: "utility_bill"}, "some text")

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "scan.pdf", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != "utility_bill" || verdict.Tier != domain.TierDocument {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestClassifyAllTiersFailReturnsSentinel(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{textErr: errRemoteDown, fileReply: "made_up_category"}, "text")

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "scan001.pdf", Data: []byte("corrupt")})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != domain.UnknownCategory || verdict.Tier != domain.TierNone {
		t.Fatalf("expected sentinel, got %+v", verdict)
	}
	if len(f.observer.tiers) != 3 {
		t.Fatalf("expected three tier observations, got %v", f.observer.tiers)
	}
}

func TestClassifyEmptyUploadReturnsSentinel(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{textReply: "invoice", fileReply: "invoice"}, "")

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "scan001.pdf"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != domain.UnknownCategory {
		t.Fatalf("expected sentinel, got %+v", verdict)
	}
	if f.model.textCalls+f.model.fileCalls != 0 {
		t.Fatalf("expected no remote calls for empty upload")
	}
}

func TestClassifyRecordsVerdictAndIgnoresSinkFailure(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{}, "")
	f.sink.err = errors.New("db down")

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "passport_scan.jpg", DeclaredMIME: "image/jpeg", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != "passport" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if len(f.sink.records) != 1 {
		t.Fatalf("expected one record, got %d", len(f.sink.records))
	}
	record := f.sink.records[0]
	if record.ID == "" || record.Category != "passport" || record.Tier != domain.TierFilename || record.SizeBytes != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestClassifyHonoursConfiguredTierOrder(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{textReply: "passport"}, "Passport of ...", domain.TierContent, domain.TierFilename)

	verdict, err := f.uc.Classify(context.Background(), domain.Document{Filename: "invoice.pdf", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.Category != "passport" || verdict.Tier != domain.TierContent {
		t.Fatalf("expected content tier first, got %+v", verdict)
	}
}

func TestClassifyCancelledContextIsTemporaryError(t *testing.T) {
	f := newPipelineFixture(t, &modelFake{}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Classify(ctx, domain.Document{Filename: "a.pdf"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestNewClassifyUseCaseRejectsUnknownTier(t *testing.T) {
	_, err := NewClassifyUseCase(ClassifyDependencies{
		Taxonomy: testTaxonomy(),
		Sniffer:  sniffFake{},
		Tiers:    []domain.Tier{"astrology"},
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUploadMIMEFallbacks(t *testing.T) {
	if got := uploadMIME("image/png", "application/pdf"); got != "image/png" {
		t.Fatalf("expected detected type, got %s", got)
	}
	if got := uploadMIME("application/octet-stream", "application/pdf"); got != "application/pdf" {
		t.Fatalf("expected declared type, got %s", got)
	}
	if got := uploadMIME("application/octet-stream", " "); got != "application/octet-stream" {
		t.Fatalf("expected octet-stream, got %s", got)
	}
}
