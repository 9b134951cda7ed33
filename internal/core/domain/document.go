package domain

import "time"

// UnknownCategory is returned when no tier produces a confident verdict.
const UnknownCategory = "unknown file"

// Document is one uploaded payload. Filename and DeclaredMIME come from the
// caller and are hints only.
type Document struct {
	Filename     string `json:"filename"`
	DeclaredMIME string `json:"declared_mime,omitempty"`
	Data         []byte `json:"-"`
}

func (d Document) Size() int {
	return len(d.Data)
}

type Tier string

const (
	TierFilename Tier = "filename"
	TierContent  Tier = "content"
	TierDocument Tier = "document"
	TierNone     Tier = "none"
)

// ParseTier maps a configuration token to a pipeline tier.
func ParseTier(raw string) (Tier, bool) {
	switch Tier(raw) {
	case TierFilename, TierContent, TierDocument:
		return Tier(raw), true
	default:
		return "", false
	}
}

// TierOutcome labels how a tier finished for metrics and logs.
type TierOutcome string

const (
	OutcomeHit     TierOutcome = "hit"
	OutcomeMiss    TierOutcome = "miss"
	OutcomeSkipped TierOutcome = "skipped"
)

type Verdict struct {
	Category string `json:"category"`
	Tier     Tier   `json:"tier"`
}

func (v Verdict) IsUnknown() bool {
	return v.Category == UnknownCategory
}

// ClassificationRecord is the audit trail of one finished classification.
type ClassificationRecord struct {
	ID           string        `json:"id"`
	Filename     string        `json:"filename"`
	DeclaredMIME string        `json:"declared_mime,omitempty"`
	DetectedMIME string        `json:"detected_mime"`
	SizeBytes    int           `json:"size_bytes"`
	Category     string        `json:"category"`
	Tier         Tier          `json:"tier"`
	Duration     time.Duration `json:"duration_ns"`
	CreatedAt    time.Time     `json:"created_at"`
}
