package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

const defaultSnippetChars = 4000

func buildTextPrompt(categories []string, text string, maxChars int) string {
	return fmt.Sprintf(`Please classify the following document text into one of these categories: %s.
Respond with only the category name. If none of the categories fit well, respond with '%s'.

Document Text:
"""
%s
"""`, quoteCategories(categories), domain.UnknownCategory, truncateRunes(text, maxChars))
}

func buildFilePrompt(categories []string) string {
	return fmt.Sprintf(`Please classify the attached file into one of these categories: %s.
Respond with only the category name. If none of the categories fit well, respond with '%s'.
`, quoteCategories(categories), domain.UnknownCategory)
}

func quoteCategories(categories []string) string {
	quoted := make([]string, 0, len(categories))
	for _, category := range categories {
		quoted = append(quoted, "'"+category+"'")
	}
	return strings.Join(quoted, ", ")
}

// truncateRunes cuts text to at most maxChars characters without splitting a rune.
func truncateRunes(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = defaultSnippetChars
	}
	count := 0
	for idx := range text {
		if count == maxChars {
			return text[:idx]
		}
		count++
	}
	return text
}

// resolveAnswer normalizes a raw model reply and maps anything outside the
// category set to the sentinel.
func resolveAnswer(taxonomy *domain.Taxonomy, raw string) (category string, recognized bool) {
	normalized := domain.NormalizeCategory(raw)
	if taxonomy.Contains(normalized) {
		return normalized, true
	}
	return domain.UnknownCategory, normalized == domain.UnknownCategory
}
