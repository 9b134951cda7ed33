package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/ports"
	"github.com/kirillkom/doc-classifier/internal/observability/metrics"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

type Options struct {
	MaxUploadBytes    int64
	AllowedExtensions []string

	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration

	// History enables GET /v1/classifications when set.
	History        ports.ClassificationHistory
	Metrics        *metrics.HTTPServerMetrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

type Router struct {
	classifier ports.DocumentClassifier
	taxonomy   ports.TaxonomyReader
	opts       Options
	allowed    map[string]struct{}
	logger     *slog.Logger
}

func NewRouter(classifier ports.DocumentClassifier, taxonomy ports.TaxonomyReader, opts Options) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	return &Router{
		classifier: classifier,
		taxonomy:   taxonomy,
		opts:       opts,
		allowed:    allowed,
		logger:     logger,
	}
}

func (rt *Router) Handler() http.Handler {
	classify := backpressureMiddleware(
		rateLimitMiddleware(http.HandlerFunc(rt.classifyFile), rt.opts.RateLimitRPS, rt.opts.RateLimitBurst),
		rt.opts.MaxInFlight,
		rt.opts.BackpressureWait,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rt.hello)
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("/classify_file", classify)
	mux.HandleFunc("GET /v1/categories", rt.listCategories)
	if rt.opts.History != nil {
		mux.HandleFunc("GET /v1/classifications", rt.listClassifications)
	}
	if rt.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", rt.opts.MetricsHandler)
	}

	var handler http.Handler = mux
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, handler))
}

func (rt *Router) hello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello, World!"))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": rt.taxonomy.Categories()})
}

func (rt *Router) listClassifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := rt.opts.History.ListRecent(r.Context(), limit)
	if err != nil {
		rt.logger.Error("list_classifications_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err.Error(),
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "failed to list classifications"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classifications": records})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
