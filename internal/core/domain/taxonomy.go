package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Rule maps filename keywords to a category. Rules are evaluated in table
// order and the first rule with a keyword contained in the filename wins.
type Rule struct {
	Category string   `yaml:"category" json:"category"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Taxonomy is the closed category set plus the filename rule table that
// references it.
type Taxonomy struct {
	categories []string
	index      map[string]struct{}
	rules      []Rule
}

// NewTaxonomy validates categories and rules and returns an immutable taxonomy.
// Keywords are lower-cased; categories must already be in normalized form.
func NewTaxonomy(categories []string, rules []Rule) (*Taxonomy, error) {
	if len(categories) == 0 {
		return nil, WrapError(ErrInvalidInput, "taxonomy", errors.New("at least one category is required"))
	}

	t := &Taxonomy{
		categories: make([]string, 0, len(categories)),
		index:      make(map[string]struct{}, len(categories)),
		rules:      make([]Rule, 0, len(rules)),
	}
	for _, category := range categories {
		if category == "" {
			return nil, WrapError(ErrInvalidInput, "taxonomy", errors.New("empty category"))
		}
		if NormalizeCategory(category) != category {
			return nil, WrapError(ErrInvalidInput, "taxonomy", fmt.Errorf("category %q is not normalized", category))
		}
		if category == UnknownCategory {
			return nil, WrapError(ErrInvalidInput, "taxonomy", fmt.Errorf("category %q is reserved", category))
		}
		if _, dup := t.index[category]; dup {
			return nil, WrapError(ErrInvalidInput, "taxonomy", fmt.Errorf("duplicate category %q", category))
		}
		t.index[category] = struct{}{}
		t.categories = append(t.categories, category)
	}

	for i, rule := range rules {
		if _, ok := t.index[rule.Category]; !ok {
			return nil, WrapError(ErrInvalidInput, "taxonomy", fmt.Errorf("rule %d references undeclared category %q", i, rule.Category))
		}
		if len(rule.Keywords) == 0 {
			return nil, WrapError(ErrInvalidInput, "taxonomy", fmt.Errorf("rule %d has no keywords", i))
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, keyword := range rule.Keywords {
			keyword = strings.ToLower(keyword)
			if strings.TrimSpace(keyword) == "" {
				return nil, WrapError(ErrInvalidInput, "taxonomy", fmt.Errorf("rule %d has an empty keyword", i))
			}
			keywords = append(keywords, keyword)
		}
		t.rules = append(t.rules, Rule{Category: rule.Category, Keywords: keywords})
	}

	return t, nil
}

// Categories returns the declared categories in declaration order.
func (t *Taxonomy) Categories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}

func (t *Taxonomy) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

func (t *Taxonomy) Contains(category string) bool {
	_, ok := t.index[category]
	return ok
}

// NormalizeCategory trims whitespace, lower-cases and drops quote characters.
// It is idempotent.
func NormalizeCategory(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '`':
			return -1
		default:
			return r
		}
	}, raw)
	return strings.ToLower(strings.TrimSpace(cleaned))
}
