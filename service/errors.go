package service

import (
	"errors"
)

// Validation errors are caller-correctable and never leave partial state
// behind. ErrSequenceExhausted is fatal for further submissions in the
// affected guild and must be surfaced, not retried.
var (
	// ErrInvalidFormat indicates a word-count expression that could not be
	// parsed as an absolute total or a signed delta.
	ErrInvalidFormat = errors.New("invalid word count format")

	// ErrInvalidThreshold indicates a rank threshold that is negative or
	// collides with another rank's threshold in the same guild.
	ErrInvalidThreshold = errors.New("invalid rank threshold")

	// ErrRankNotFound indicates a rank identifier with no definition in the
	// guild's table.
	ErrRankNotFound = errors.New("rank not found")

	// ErrSequenceExhausted indicates the guild's report sequence has reached
	// its maximum and no further reports can be recorded.
	ErrSequenceExhausted = errors.New("report sequence exhausted")
)
