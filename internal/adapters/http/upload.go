package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

// multipartOverhead is headroom for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 64 * 1024

const uploadField = "file"

type uploadError struct {
	status  int
	message string
	reason  string
}

func (e *uploadError) Error() string { return e.message }

func (rt *Router) classifyFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	doc, err := rt.readUpload(w, r)
	if err != nil {
		var upErr *uploadError
		if !errors.As(err, &upErr) {
			upErr = &uploadError{status: http.StatusBadRequest, message: msgMalformedUpload, reason: "malformed"}
		}
		if rt.opts.Metrics != nil {
			rt.opts.Metrics.RecordRejectedUpload(upErr.reason)
		}
		annotateRequest(r.Context(), "upload_rejected", upErr.reason)
		rt.logger.Warn("upload_rejected",
			"request_id", requestIDFromContext(r.Context()),
			"reason", upErr.reason,
			"error", err.Error(),
		)
		writeJSON(w, upErr.status, map[string]string{"error": upErr.message})
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.ObserveUpload(doc.Size())
	}
	annotateRequest(r.Context(), "filename", doc.Filename, "size_bytes", doc.Size())

	verdict, err := rt.classifier.Classify(r.Context(), doc)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		rt.logger.Error("classification_failed",
			"request_id", requestIDFromContext(r.Context()),
			"filename", doc.Filename,
			"error", err.Error(),
		)
		writeJSON(w, status, map[string]string{"error": classificationErrorMessage(status)})
		return
	}

	annotateRequest(r.Context(), "file_class", verdict.Category, "tier", string(verdict.Tier))
	writeJSON(w, http.StatusOK, map[string]string{"file_class": verdict.Category})
}

// readUpload streams the multipart body and returns the first "file" part.
// Checks run in order: size header, presence, filename, extension, size.
func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (domain.Document, error) {
	limit := rt.opts.MaxUploadBytes
	if r.ContentLength > limit+multipartOverhead {
		return domain.Document{}, tooLarge(fmt.Errorf("content length %d", r.ContentLength))
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		return domain.Document{}, &uploadError{status: http.StatusBadRequest, message: msgNoFilePart, reason: "missing_file"}
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return domain.Document{}, &uploadError{status: http.StatusBadRequest, message: msgNoFilePart, reason: "missing_file"}
		}
		if err != nil {
			return domain.Document{}, classifyReadError(err)
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}
		return rt.readFilePart(part, limit)
	}
}

func (rt *Router) readFilePart(part *multipart.Part, limit int64) (domain.Document, error) {
	defer part.Close()

	filename := part.FileName()
	if filename == "" {
		return domain.Document{}, &uploadError{status: http.StatusBadRequest, message: msgNoSelectedFile, reason: "empty_filename"}
	}
	if !rt.extensionAllowed(filename) {
		return domain.Document{}, &uploadError{status: http.StatusBadRequest, message: msgFileTypeNotAllowed, reason: "extension"}
	}

	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return domain.Document{}, classifyReadError(err)
	}
	if int64(len(data)) > limit {
		return domain.Document{}, tooLarge(fmt.Errorf("file exceeds %d bytes", limit))
	}

	return domain.Document{
		Filename:     filename,
		DeclaredMIME: part.Header.Get("Content-Type"),
		Data:         data,
	}, nil
}

// extensionAllowed accepts any extension when no allow-list is configured;
// a name without a dot is always rejected.
func (rt *Router) extensionAllowed(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return false
	}
	if len(rt.allowed) == 0 {
		return true
	}
	_, ok := rt.allowed[strings.ToLower(filename[idx+1:])]
	return ok
}

func classifyReadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return tooLarge(err)
	}
	return fmt.Errorf("read multipart body: %w", err)
}

func tooLarge(cause error) error {
	return fmt.Errorf("%w: %w", &uploadError{status: http.StatusRequestEntityTooLarge, message: msgFileTooLarge, reason: "too_large"}, cause)
}
