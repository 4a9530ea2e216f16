package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrTemporary marks network/timeout-class provider failures that are
	// safe to retry; ErrPermanent marks auth/config failures that are not.
	ErrTemporary = errors.New("temporary failure")
	ErrPermanent = errors.New("permanent failure")
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
