package entities

import "errors"

var (
	// ErrInvalidIntent marks input rejected before any retrieval.
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrNoPassages means the index yielded nothing for the query. Terminal, no attempts spent.
	ErrNoPassages = errors.New("no relevant information found")

	// ErrGeneration means the model was unreachable or returned empty output.
	ErrGeneration = errors.New("generation failed")

	// ErrAssessment means a risk assessment call errored.
	ErrAssessment = errors.New("risk assessment failed")

	// ErrAllAttemptsFailed is returned when no attempt produced a candidate.
	ErrAllAttemptsFailed = errors.New("all drafting attempts failed")
)

// ValidationError describes why an intent was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrInvalidIntent }
