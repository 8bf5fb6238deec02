package tracker

import "errors"

var (
	// ErrInvalidInput is returned when a create request carries an empty
	// name or a day count that is not a plain decimal number.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTaskNotFound is returned for operations on a task id the document
	// does not contain, usually a stale reference from the UI.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAchievementNotFound is the same for achievement references.
	ErrAchievementNotFound = errors.New("achievement not found")
)
