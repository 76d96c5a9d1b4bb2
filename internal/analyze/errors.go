package analyze

import "errors"

var (
	// ErrInvalidInput indicates missing, malformed or non-image uploads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream indicates the provider call failed or returned unusable output.
	ErrUpstream = errors.New("upstream failure")
)

// UpstreamValidationError carries the model's own rejection of the screenshots.
// Message is user-facing.
type UpstreamValidationError struct {
	Message string
}

func (e *UpstreamValidationError) Error() string {
	return "upstream validation: " + e.Message
}
