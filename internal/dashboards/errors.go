package dashboards

import "errors"

var (
	// ErrInvalidDocument indicates the payload is not a recognizable analysis.
	ErrInvalidDocument = errors.New("invalid dashboard document")

	// ErrUnauthorized indicates an owner-scoped operation without an identity.
	ErrUnauthorized = errors.New("owner required")

	// ErrForbidden indicates the requester does not own the record.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the id is absent from both collections.
	ErrNotFound = errors.New("dashboard not found")

	// ErrStorage wraps failures raised by the document store.
	ErrStorage = errors.New("storage failure")
)
