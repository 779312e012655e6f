package cart

import (
	"errors"
	"fmt"
)

// Domain errors for cart operations.
var (
	// ErrInvalidArgument indicates a mutation was called with a missing or
	// unusable argument. Raised synchronously; the caller must handle it.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrReviewRejected indicates the review gate declined a pending save.
	// Carried by the SaveResult; the persisted record is left unchanged.
	ErrReviewRejected = errors.New("review rejected")

	// ErrMalformedRecord indicates the persisted blob did not validate as a
	// cart record. Load paths treat it as an empty cart, never as a failure.
	ErrMalformedRecord = errors.New("malformed cart record")
)

// InvalidArgumentError reports which operation received which bad argument.
type InvalidArgumentError struct {
	Op     string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is allows errors.Is to work with InvalidArgumentError.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// RejectedError carries the review gate's reason for declining a save.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "save rejected by review gate"
	}
	return "save rejected by review gate: " + e.Reason
}

// Is allows errors.Is to work with RejectedError.
func (e *RejectedError) Is(target error) bool {
	return target == ErrReviewRejected
}
