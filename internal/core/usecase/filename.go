package usecase

import (
	"strings"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

// FilenameMatcher is the zero-network tier: keyword rules against the filename.
type FilenameMatcher struct {
	rules []domain.Rule
}

func NewFilenameMatcher(taxonomy *domain.Taxonomy) *FilenameMatcher {
	return &FilenameMatcher{rules: taxonomy.Rules()}
}

// Match returns the category of the first rule with a keyword contained in
// the lower-cased filename.
func (m *FilenameMatcher) Match(filename string) (string, bool) {
	lower := strings.ToLower(filename)
	if lower == "" {
		return "", false
	}
	for _, rule := range m.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
