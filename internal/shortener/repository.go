package shortener

import "context"

// Repository defines the link store contract. Any durable keyed store with a
// uniqueness constraint on the code can satisfy it.
type Repository interface {
	GetByCode(ctx context.Context, code Code) (*ShortLink, error)

	// GetByHash retrieves the link for a destination URL hash.
	// Used by the creation flow to deduplicate identical URLs.
	GetByHash(ctx context.Context, hash URLHash) (*ShortLink, error)

	// Exists reports whether a code is present, active or not. Used by the
	// allocator as a pre-check; Insert remains the correctness guarantee.
	Exists(ctx context.Context, code Code) (bool, error)

	// Insert stores a new link. Exactly one concurrent Insert of the same
	// code wins; the loser receives ErrConflict. An insert racing on the
	// URL hash receives ErrDuplicateURL.
	Insert(ctx context.Context, link *ShortLink) error

	// Deactivate soft-deletes a link. The code stays reserved forever and
	// historical click events keep referring to it.
	Deactivate(ctx context.Context, code Code) error

	List(ctx context.Context, filter ListFilter) ([]*ShortLink, error)

	// IncrementClicks bumps the denormalized click counter. A missing code
	// is not an error: click events are weak references.
	IncrementClicks(ctx context.Context, code Code) error
}
