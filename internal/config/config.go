package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string

	MaxUploadBytes    int64
	AllowedExtensions string

	TaxonomyPath    string
	ClassifierTiers string

	LLMProvider         string
	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	OllamaURL           string
	OllamaModel         string
	LLMTimeoutSeconds   int
	LLMRetryMaxAttempts int
	LLMBreakerEnabled   bool
	TextSnippetChars    int

	OCREnabled   bool
	OCRLanguages string

	ScratchPath string

	PostgresDSN string
	NATSURL     string
	NATSSubject string

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "5000"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		MaxUploadBytes:    int64(mustEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		AllowedExtensions: mustEnv("ALLOWED_EXTENSIONS", "pdf,png,jpg,jpeg,tif,tiff,doc,docx,xls,xlsx,txt"),

		TaxonomyPath:    mustEnv("TAXONOMY_PATH", ""),
		ClassifierTiers: mustEnv("CLASSIFIER_TIERS", "filename,content,document"),

		LLMProvider:         mustEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:        mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:         mustEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:       mustEnv("GEMINI_BASE_URL", ""),
		OllamaURL:           mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:         mustEnv("OLLAMA_MODEL", "llama3.1:8b"),
		LLMTimeoutSeconds:   mustEnvInt("LLM_TIMEOUT_SECONDS", 30),
		LLMRetryMaxAttempts: mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", 2),
		LLMBreakerEnabled:   mustEnvBool("LLM_BREAKER_ENABLED", true),
		TextSnippetChars:    mustEnvInt("TEXT_SNIPPET_CHARS", 4000),

		OCREnabled:   mustEnvBool("OCR_ENABLED", true),
		OCRLanguages: mustEnv("OCR_LANGUAGES", "eng"),

		ScratchPath: mustEnv("SCRATCH_PATH", ""),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),
		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "documents.classified"),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 16),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),
	}
}

// Tiers parses CLASSIFIER_TIERS in order. Unknown names are an error.
func (c Config) Tiers() ([]domain.Tier, error) {
	var tiers []domain.Tier
	for _, token := range splitList(c.ClassifierTiers) {
		tier, ok := domain.ParseTier(token)
		if !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "CLASSIFIER_TIERS", fmt.Errorf("unknown tier %q", token))
		}
		tiers = append(tiers, tier)
	}
	if len(tiers) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "CLASSIFIER_TIERS", fmt.Errorf("no tiers configured"))
	}
	return tiers, nil
}

// Extensions returns the upload allow-list, lower-cased and without dots.
func (c Config) Extensions() []string {
	items := splitList(c.AllowedExtensions)
	for i, item := range items {
		items[i] = strings.TrimPrefix(item, ".")
	}
	return items
}

func (c Config) Languages() []string {
	return strings.FieldsFunc(c.OCRLanguages, func(r rune) bool { return r == ',' || r == '+' || r == ' ' })
}

func (c Config) LLMTimeout() time.Duration {
	if c.LLMTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// RemoteBudget is the hard cap on one remote tier call that issues the given
// number of resilient operations. Each operation may use every retry attempt
// plus backoff.
func (c Config) RemoteBudget(operations int) time.Duration {
	attempts := max(1, c.LLMRetryMaxAttempts)
	perOperation := c.LLMTimeout()*time.Duration(attempts) + 5*time.Second
	return perOperation * time.Duration(max(1, operations))
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
