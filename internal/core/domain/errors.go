package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidTransition indicates an illegal run or item state change
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNoSourceText indicates the document has no extracted text artifact
	ErrNoSourceText = errors.New("document has no source text")

	// ErrInsufficientText indicates the extracted text is below the minimum
	// viable length for analysis
	ErrInsufficientText = errors.New("insufficient text (empty or scanned source)")

	// ErrMalformedClaim indicates the generative provider returned output
	// that fails the claim schema or length constraints
	ErrMalformedClaim = errors.New("malformed claim")

	// ErrRunBusy indicates another caller holds the run's advance lock
	ErrRunBusy = errors.New("run is being advanced by another caller")

	// ErrNoDocuments indicates the project has no documents to run over
	ErrNoDocuments = errors.New("project has no documents")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
