package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

type classifierFake struct {
	verdict domain.Verdict
	err     error
	docs    []domain.Document
}

func (f *classifierFake) Classify(_ context.Context, doc domain.Document) (domain.Verdict, error) {
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return domain.Verdict{}, f.err
	}
	return f.verdict, nil
}

type taxonomyFake []string

func (f taxonomyFake) Categories() []string { return f }

type historyFake struct {
	records []domain.ClassificationRecord
	err     error
	limit   int
}

func (f *historyFake) ListRecent(_ context.Context, limit int) ([]domain.ClassificationRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func testOptions() Options {
	return Options{
		MaxUploadBytes:    1024,
		AllowedExtensions: []string{"pdf", "png", "txt"},
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newTestHandler(classifier *classifierFake, opts Options) http.Handler {
	return NewRouter(classifier, taxonomyFake{"invoice", "passport"}, opts).Handler()
}

func newUploadRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/classify_file", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestHelloEndpoint(t *testing.T) {
	handler := newTestHandler(&classifierFake{}, testOptions())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	if res.Code != http.StatusOK || res.Body.String() != "Hello, World!" {
		t.Fatalf("unexpected response: %d %q", res.Code, res.Body.String())
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(&classifierFake{}, testOptions())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestListCategories(t *testing.T) {
	handler := newTestHandler(&classifierFake{}, testOptions())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/categories", nil))

	var payload struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if strings.Join(payload.Categories, ",") != "invoice,passport" {
		t.Fatalf("unexpected categories: %v", payload.Categories)
	}
}

func TestClassifyFileSuccess(t *testing.T) {
	classifier := &classifierFake{verdict: domain.Verdict{Category: "invoice", Tier: domain.TierFilename}}
	handler := newTestHandler(classifier, testOptions())

	req := newUploadRequest(t, "file", "my_invoice_2024.pdf", "application/pdf", []byte("%PDF-1.4"))
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if got := decodeBody(t, res)["file_class"]; got != "invoice" {
		t.Fatalf("unexpected file_class: %v", got)
	}
	if res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("expected request id to be echoed")
	}
	if len(classifier.docs) != 1 {
		t.Fatalf("expected one classification, got %d", len(classifier.docs))
	}
	doc := classifier.docs[0]
	if doc.Filename != "my_invoice_2024.pdf" || doc.DeclaredMIME != "application/pdf" || string(doc.Data) != "%PDF-1.4" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

// accessLogLines returns the decoded "http_request" records written to buf.
func accessLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			t.Fatalf("decode log record: %v", err)
		}
		if record["msg"] == "http_request" {
			lines = append(lines, record)
		}
	}
	return lines
}

func TestClassifyFileAccessLogCarriesVerdict(t *testing.T) {
	var logs bytes.Buffer
	opts := testOptions()
	opts.Logger = slog.New(slog.NewJSONHandler(&logs, nil))
	classifier := &classifierFake{verdict: domain.Verdict{Category: "passport", Tier: domain.TierContent}}
	handler := newTestHandler(classifier, opts)

	handler.ServeHTTP(httptest.NewRecorder(), newUploadRequest(t, "file", "scan001.pdf", "application/pdf", []byte("%PDF-1.4")))
	handler.ServeHTTP(httptest.NewRecorder(), newUploadRequest(t, "file", "notes.exe", "", []byte("MZ")))

	lines := accessLogLines(t, &logs)
	if len(lines) != 2 {
		t.Fatalf("expected 2 access log lines, got %d", len(lines))
	}
	accepted := lines[0]
	if accepted["filename"] != "scan001.pdf" || accepted["file_class"] != "passport" || accepted["tier"] != "content" {
		t.Fatalf("access log misses verdict: %v", accepted)
	}
	if accepted["size_bytes"] != float64(8) {
		t.Fatalf("unexpected size_bytes: %v", accepted["size_bytes"])
	}
	rejected := lines[1]
	if rejected["upload_rejected"] != "extension" || rejected["status"] != float64(http.StatusBadRequest) {
		t.Fatalf("access log misses rejection: %v", rejected)
	}
	if _, ok := rejected["file_class"]; ok {
		t.Fatalf("rejected upload must not carry a verdict: %v", rejected)
	}
}

func TestClassifyFileReturnsSentinelVerdict(t *testing.T) {
	classifier := &classifierFake{verdict: domain.Verdict{Category: domain.UnknownCategory, Tier: domain.TierNone}}
	handler := newTestHandler(classifier, testOptions())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newUploadRequest(t, "file", "empty.txt", "text/plain", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := decodeBody(t, res)["file_class"]; got != domain.UnknownCategory {
		t.Fatalf("unexpected file_class: %v", got)
	}
}

func TestClassifyFileRejections(t *testing.T) {
	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
		status  int
		message string
	}{
		{
			name: "not multipart",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/classify_file", strings.NewReader("plain-text"))
				req.Header.Set("Content-Type", "text/plain")
				return req
			},
			status:  http.StatusBadRequest,
			message: msgNoFilePart,
		},
		{
			name: "wrong field",
			request: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "document", "invoice.pdf", "", []byte("x"))
			},
			status:  http.StatusBadRequest,
			message: msgNoFilePart,
		},
		{
			name: "empty filename",
			request: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "file", "", "", []byte("x"))
			},
			status:  http.StatusBadRequest,
			message: msgNoSelectedFile,
		},
		{
			name: "disallowed extension",
			request: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "file", "payload.exe", "", []byte("MZ"))
			},
			status:  http.StatusBadRequest,
			message: msgFileTypeNotAllowed,
		},
		{
			name: "no extension",
			request: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "file", "README", "", []byte("x"))
			},
			status:  http.StatusBadRequest,
			message: msgFileTypeNotAllowed,
		},
		{
			name: "too large",
			request: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "file", "big.TXT", "", bytes.Repeat([]byte("a"), 1025))
			},
			status:  http.StatusRequestEntityTooLarge,
			message: msgFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &classifierFake{verdict: domain.Verdict{Category: "invoice"}}
			handler := newTestHandler(classifier, testOptions())

			res := httptest.NewRecorder()
			handler.ServeHTTP(res, tt.request(t))

			if res.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, res.Code, res.Body.String())
			}
			if got := decodeBody(t, res)["error"]; got != tt.message {
				t.Fatalf("unexpected error message: %v", got)
			}
			if len(classifier.docs) != 0 {
				t.Fatalf("classifier must not run for rejected uploads")
			}
		})
	}
}

func TestClassifyFileRejectsOversizedContentLength(t *testing.T) {
	handler := newTestHandler(&classifierFake{}, testOptions())

	req := newUploadRequest(t, "file", "scan.pdf", "", []byte("x"))
	req.ContentLength = 10 * 1024 * 1024
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestClassifyFileMapsPipelineFaultTo500(t *testing.T) {
	classifier := &classifierFake{err: domain.WrapError(domain.ErrInvariant, "classify", errors.New("tier leaked category"))}
	handler := newTestHandler(classifier, testOptions())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newUploadRequest(t, "file", "scan.pdf", "", []byte("x")))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if got := decodeBody(t, res)["error"]; got != msgClassificationFailed {
		t.Fatalf("pipeline detail leaked: %v", got)
	}
}

func TestClassifyFileMapsTemporaryTo503(t *testing.T) {
	classifier := &classifierFake{err: domain.WrapError(domain.ErrTemporary, "classify", context.Canceled)}
	handler := newTestHandler(classifier, testOptions())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newUploadRequest(t, "file", "scan.pdf", "", []byte("x")))

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestClassifyFileRejectsGet(t *testing.T) {
	handler := newTestHandler(&classifierFake{}, testOptions())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/classify_file", nil))

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestListClassifications(t *testing.T) {
	history := &historyFake{records: []domain.ClassificationRecord{{
		ID:        "rec-1",
		Filename:  "scan001.pdf",
		Category:  "invoice",
		Tier:      domain.TierContent,
		CreatedAt: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
	}}}
	opts := testOptions()
	opts.History = history
	handler := newTestHandler(&classifierFake{}, opts)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/classifications?limit=5", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if history.limit != 5 {
		t.Fatalf("expected limit 5, got %d", history.limit)
	}
	var payload struct {
		Classifications []domain.ClassificationRecord `json:"classifications"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Classifications) != 1 || payload.Classifications[0].Category != "invoice" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestListClassificationsRejectsBadLimit(t *testing.T) {
	opts := testOptions()
	opts.History = &historyFake{}
	handler := newTestHandler(&classifierFake{}, opts)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/classifications?limit=-1", nil))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestListClassificationsAbsentWithoutHistory(t *testing.T) {
	handler := newTestHandler(&classifierFake{}, testOptions())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/classifications", nil))

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
