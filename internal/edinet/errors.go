package edinet

import "errors"

var (
	// ErrUnavailable indicates EDINET kept failing after retries (timeouts, 5xx).
	ErrUnavailable = errors.New("edinet unavailable")
	// ErrAuth indicates a 401/403 from EDINET; not retryable.
	ErrAuth = errors.New("edinet authentication failed")
	// ErrNotFound indicates a 404 for a document fetch.
	ErrNotFound = errors.New("edinet document not found")
	// ErrBadResponse indicates a 200 with a body that is not the expected JSON.
	ErrBadResponse = errors.New("edinet bad response")
)
