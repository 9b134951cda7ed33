package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

//go:embed default_taxonomy.yaml
var defaultTaxonomy []byte

type taxonomyFile struct {
	Categories []string      `yaml:"categories"`
	Rules      []domain.Rule `yaml:"rules"`
}

// LoadTaxonomy reads the taxonomy at path, or the built-in one when path is empty.
func LoadTaxonomy(path string) (*domain.Taxonomy, error) {
	raw := defaultTaxonomy
	source := "built-in taxonomy"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
		}
		raw = data
		source = path
	}
	taxonomy, err := ParseTaxonomy(raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	return taxonomy, nil
}

func ParseTaxonomy(raw []byte) (*domain.Taxonomy, error) {
	var file taxonomyFile
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse taxonomy", err)
	}
	return domain.NewTaxonomy(file.Categories, file.Rules)
}
