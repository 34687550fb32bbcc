package conversation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthorized means the user is not on the allow-list.
	ErrNotAuthorized = errors.New("user not authorized")
	// ErrInvalidInput means the current step rejected the input and re-prompts.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoContracts means the selected type has no contracts.
	ErrNoContracts = errors.New("no contracts for type")
	// ErrStorage wraps every failure of the Store or the reminder scheduler.
	ErrStorage = errors.New("storage failure")
	// ErrIncompleteDraft is returned by Session.Draft when a step was skipped.
	ErrIncompleteDraft = errors.New("incomplete contract draft")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStorage, op, err)
}

func invalidInput(what, input string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidInput, what, input)
}
