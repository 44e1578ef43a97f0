package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// insertAttempts bounds re-allocation after a code conflict slipped past the
// allocator's pre-check.
const insertAttempts = 3

// Service implements the link creation flow: validation, deduplication by
// normalized URL hash, code allocation, and conflict-safe insertion.
type Service struct {
	repo      Repository
	allocator *Allocator
	logger    *zap.Logger
}

// NewService creates a new link creation service.
func NewService(repo Repository, allocator *Allocator, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		logger:    logger,
	}
}

// Create shortens a destination URL. Identical URLs (after normalization)
// resolve to the same link; the second return value reports whether an
// existing link was reused.
func (s *Service) Create(ctx context.Context, rawURL string) (*ShortLink, bool, error) {
	if err := ValidateDestinationURL(rawURL); err != nil {
		return nil, false, err
	}

	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	hash := HashURL(normalized)

	existing, err := s.repo.GetByHash(ctx, hash)
	if err == nil {
		return existing, true, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("looking up url hash: %w", err)
	}

	for attempt := 0; attempt < insertAttempts; attempt++ {
		code, err := s.allocator.Allocate(ctx)
		if err != nil {
			return nil, false, err
		}

		link := &ShortLink{
			Code:           code,
			DestinationURL: rawURL,
			URLHash:        hash,
			CreatedAt:      time.Now().UTC(),
			Active:         true,
		}

		err = s.repo.Insert(ctx, link)
		if err == nil {
			s.logger.Info("short link created",
				zap.String("code", string(code)),
				zap.String("destination", truncate(rawURL, 80)),
			)

			return link, false, nil
		}

		if errors.Is(err, ErrDuplicateURL) {
			// Lost the race on the URL hash: return the winner.
			winner, getErr := s.repo.GetByHash(ctx, hash)
			if getErr != nil {
				return nil, false, fmt.Errorf("fetching deduplicated link: %w", getErr)
			}

			return winner, true, nil
		}

		if errors.Is(err, ErrConflict) {
			s.logger.Warn("short code insert conflict",
				zap.String("code", string(code)),
				zap.Int("attempt", attempt+1),
			)

			continue
		}

		return nil, false, fmt.Errorf("inserting short link: %w", err)
	}

	return nil, false, ErrAllocationExhausted
}

// Deactivate soft-deletes a link. Its code stays reserved and its click
// history stays queryable.
func (s *Service) Deactivate(ctx context.Context, code Code) error {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		return err
	}

	s.logger.Info("short link deactivated", zap.String("code", string(code)))

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
