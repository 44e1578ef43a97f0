package shortener

import "errors"

var (
	// ErrNotFound indicates the code does not exist in the store.
	ErrNotFound = errors.New("short link not found")

	// ErrConflict indicates a concurrent insert won the race for the same
	// code. The store's insert atomicity is the authoritative uniqueness
	// guarantee; callers should allocate a new code and retry.
	ErrConflict = errors.New("short code already exists")

	// ErrDuplicateURL indicates a concurrent insert won the race for the
	// same destination URL hash. Callers should return the winner's link.
	ErrDuplicateURL = errors.New("destination url already shortened")

	// ErrAllocationExhausted indicates no free code was found within the
	// allocator's retry budget. Retriable by the caller.
	ErrAllocationExhausted = errors.New("short code allocation exhausted")

	// ErrInvalidURL indicates the destination URL failed validation.
	ErrInvalidURL = errors.New("invalid destination url")
)
