package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
)

const (
	msgClassificationFailed = "Internal server error during classification"
	msgClassificationBusy   = "Classification temporarily unavailable, retry later"
	msgNoFilePart           = "No file part in the request"
	msgNoSelectedFile       = "No selected file"
	msgFileTypeNotAllowed   = "File type not allowed"
	msgFileTooLarge         = "File too large"
	msgMalformedUpload      = "Malformed multipart request"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr), domain.IsKind(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// classificationErrorMessage never leaks pipeline detail to the client.
func classificationErrorMessage(status int) string {
	if status == http.StatusServiceUnavailable {
		return msgClassificationBusy
	}
	return msgClassificationFailed
}
