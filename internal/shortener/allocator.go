package shortener

import (
	"context"
	"fmt"
	"sync"

	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

// Alphabet is the base62 character set used for short codes.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	// DefaultCodeLength is sufficient for the intended scale: 62^6
	// candidates against a few thousand links per day.
	DefaultCodeLength = 6

	maxCodeLength     = 10
	attemptsPerLength = 10
)

// Allocator produces unique short codes. It generates random base62
// candidates and pre-checks them against the repository; on repeated
// collisions it grows the candidate length by one character. The pre-check
// only reduces conflict frequency; the repository's atomic Insert is the
// uniqueness guarantee.
type Allocator struct {
	repo      Repository
	minLength int
	logger    *zap.Logger

	mu         sync.Mutex
	generators map[int]func() string
}

// NewAllocator creates an allocator starting at the given code length.
// Lengths outside [DefaultCodeLength, maxCodeLength] are clamped.
func NewAllocator(repo Repository, minLength int, logger *zap.Logger) *Allocator {
	if minLength < DefaultCodeLength {
		minLength = DefaultCodeLength
	}

	if minLength > maxCodeLength {
		minLength = maxCodeLength
	}

	return &Allocator{
		repo:       repo,
		minLength:  minLength,
		logger:     logger,
		generators: make(map[int]func() string),
	}
}

// Allocate returns a code that did not exist in the repository at check
// time. It returns ErrAllocationExhausted once the retry budget across all
// candidate lengths is spent.
func (a *Allocator) Allocate(ctx context.Context) (Code, error) {
	for length := a.minLength; length <= maxCodeLength; length++ {
		generate, err := a.generator(length)
		if err != nil {
			return "", fmt.Errorf("building code generator: %w", err)
		}

		for attempt := 0; attempt < attemptsPerLength; attempt++ {
			candidate := Code(generate())

			exists, err := a.repo.Exists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("checking code existence: %w", err)
			}

			if !exists {
				return candidate, nil
			}

			a.logger.Warn("short code collision",
				zap.String("code", string(candidate)),
				zap.Int("length", length),
				zap.Int("attempt", attempt+1),
			)
		}
	}

	return "", ErrAllocationExhausted
}

func (a *Allocator) generator(length int) (func() string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen, ok := a.generators[length]; ok {
		return gen, nil
	}

	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, err
	}

	a.generators[length] = gen

	return gen, nil
}
