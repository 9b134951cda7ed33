package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

const octetStream = "application/octet-stream"

// DefaultTiers is the precedence used when none is configured: the filename
// signal is trusted above content.
var DefaultTiers = []domain.Tier{domain.TierFilename, domain.TierContent, domain.TierDocument}

type ClassifyDependencies struct {
	Taxonomy           *domain.Taxonomy
	Tiers              []domain.Tier
	Filename           *FilenameMatcher
	Sniffer            ports.MIMESniffer
	Extractor          ports.TextExtractor
	TextClassifier     *TextClassifier
	DocumentClassifier *DocumentClassifier
	Sinks              []ports.VerdictSink
	Observer           ports.PipelineObserver
	Logger             *slog.Logger
}

// ClassifyUseCase runs the tiers strictly in order and returns the first
// confident verdict.
type ClassifyUseCase struct {
	taxonomy  *domain.Taxonomy
	tiers     []domain.Tier
	filename  *FilenameMatcher
	sniffer   ports.MIMESniffer
	extractor ports.TextExtractor
	text      *TextClassifier
	document  *DocumentClassifier
	sinks     []ports.VerdictSink
	observer  ports.PipelineObserver
	logger    *slog.Logger
	now       func() time.Time
}

func NewClassifyUseCase(deps ClassifyDependencies) (*ClassifyUseCase, error) {
	if deps.Taxonomy == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new classify use case", fmt.Errorf("taxonomy is required"))
	}
	if deps.Sniffer == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new classify use case", fmt.Errorf("mime sniffer is required"))
	}
	tiers := deps.Tiers
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	if err := validateTiers(tiers); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	filename := deps.Filename
	if filename == nil {
		filename = NewFilenameMatcher(deps.Taxonomy)
	}

	return &ClassifyUseCase{
		taxonomy:  deps.Taxonomy,
		tiers:     append([]domain.Tier(nil), tiers...),
		filename:  filename,
		sniffer:   deps.Sniffer,
		extractor: deps.Extractor,
		text:      deps.TextClassifier,
		document:  deps.DocumentClassifier,
		sinks:     deps.Sinks,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func validateTiers(tiers []domain.Tier) error {
	seen := make(map[domain.Tier]struct{}, len(tiers))
	for _, tier := range tiers {
		if _, ok := domain.ParseTier(string(tier)); !ok {
			return domain.WrapError(domain.ErrInvalidInput, "classifier tiers", fmt.Errorf("unknown tier %q", tier))
		}
		if _, dup := seen[tier]; dup {
			return domain.WrapError(domain.ErrInvalidInput, "classifier tiers", fmt.Errorf("duplicate tier %q", tier))
		}
		seen[tier] = struct{}{}
	}
	return nil
}

func (uc *ClassifyUseCase) Categories() []string {
	return uc.taxonomy.Categories()
}

func (uc *ClassifyUseCase) Classify(ctx context.Context, doc domain.Document) (domain.Verdict, error) {
	start := uc.now()
	detected := uc.sniffer.Sniff(doc.Data)
	uc.logger.Debug("document_received",
		"filename", doc.Filename,
		"declared_mime", doc.DeclaredMIME,
		"detected_mime", detected,
		"size_bytes", doc.Size(),
	)

	verdict := domain.Verdict{Category: domain.UnknownCategory, Tier: domain.TierNone}
	for _, tier := range uc.tiers {
		if err := ctx.Err(); err != nil {
			return domain.Verdict{}, domain.WrapError(domain.ErrTemporary, "classify", err)
		}

		tierStart := uc.now()
		category, outcome := uc.runTier(ctx, tier, doc, detected)
		uc.observer.ObserveTier(tier, outcome, uc.now().Sub(tierStart))
		uc.logger.Debug("classification_tier", "filename", doc.Filename, "tier", tier, "outcome", outcome)

		if outcome != domain.OutcomeHit {
			continue
		}
		if !uc.taxonomy.Contains(category) {
			return domain.Verdict{}, domain.WrapError(
				domain.ErrInvariant,
				"classify",
				fmt.Errorf("tier %s produced undeclared category %q", tier, category),
			)
		}
		verdict = domain.Verdict{Category: category, Tier: tier}
		break
	}

	elapsed := uc.now().Sub(start)
	uc.observer.ObserveClassification(verdict, elapsed)
	uc.logger.Info("document_classified",
		"filename", doc.Filename,
		"category", verdict.Category,
		"tier", verdict.Tier,
		"duration_ms", float64(elapsed.Microseconds())/1000.0,
	)
	uc.record(ctx, doc, detected, verdict, elapsed)
	return verdict, nil
}

func (uc *ClassifyUseCase) runTier(ctx context.Context, tier domain.Tier, doc domain.Document, detected string) (string, domain.TierOutcome) {
	switch tier {
	case domain.TierFilename:
		if category, ok := uc.filename.Match(doc.Filename); ok {
			return category, domain.OutcomeHit
		}
		return "", domain.OutcomeMiss

	case domain.TierContent:
		if uc.extractor == nil || uc.text == nil {
			return "", domain.OutcomeSkipped
		}
		text, ok := uc.extractor.Extract(ctx, doc.Data, detected)
		if !ok {
			uc.logger.Debug("extracted_text_empty", "filename", doc.Filename, "detected_mime", detected)
			return "", domain.OutcomeMiss
		}
		return confident(uc.text.Classify(ctx, text))

	case domain.TierDocument:
		if uc.document == nil {
			return "", domain.OutcomeSkipped
		}
		return confident(uc.document.Classify(ctx, doc, uploadMIME(detected, doc.DeclaredMIME)))
	}
	return "", domain.OutcomeSkipped
}

// confident treats the sentinel as "no signal" so the next tier still runs.
func confident(category string, ok bool) (string, domain.TierOutcome) {
	if !ok || category == domain.UnknownCategory {
		return "", domain.OutcomeMiss
	}
	return category, domain.OutcomeHit
}

// uploadMIME prefers the sniffed type and falls back to the client's claim.
func uploadMIME(detected, declared string) string {
	if detected != "" && detected != octetStream {
		return detected
	}
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	return octetStream
}

func (uc *ClassifyUseCase) record(ctx context.Context, doc domain.Document, detected string, verdict domain.Verdict, elapsed time.Duration) {
	if len(uc.sinks) == 0 {
		return
	}
	record := domain.ClassificationRecord{
		ID:           uuid.NewString(),
		Filename:     doc.Filename,
		DeclaredMIME: doc.DeclaredMIME,
		DetectedMIME: detected,
		SizeBytes:    doc.Size(),
		Category:     verdict.Category,
		Tier:         verdict.Tier,
		Duration:     elapsed,
		CreatedAt:    uc.now().UTC(),
	}
	for _, sink := range uc.sinks {
		if err := sink.RecordClassification(ctx, record); err != nil {
			uc.logger.Warn("verdict_sink_failed", "record_id", record.ID, "error", err.Error())
		}
	}
}

type noopObserver struct{}

func (noopObserver) ObserveTier(domain.Tier, domain.TierOutcome, time.Duration) {}

func (noopObserver) ObserveClassification(domain.Verdict, time.Duration) {}
