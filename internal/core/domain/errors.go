package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrUnsupportedContent = errors.New("unsupported content")
	ErrRemoteDisabled     = errors.New("remote classification disabled")
	ErrTemporary          = errors.New("temporary failure")
	ErrInvariant          = errors.New("internal invariant violated")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
