package shortener_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shortify/shortify/internal/shortener"
	"github.com/shortify/shortify/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testURL = "https://example.org/page"

func newTestService(repo shortener.Repository) *shortener.Service {
	allocator := shortener.NewAllocator(repo, 6, zap.NewNop())

	return shortener.NewService(repo, allocator, zap.NewNop())
}

func TestService_Create(t *testing.T) {
	t.Run("creates a new link", func(t *testing.T) {
		svc := newTestService(store.NewMemoryStore())

		link, deduplicated, err := svc.Create(context.Background(), testURL)

		require.NoError(t, err)
		assert.False(t, deduplicated)
		assert.Len(t, string(link.Code), 6)
		assert.Equal(t, testURL, link.DestinationURL)
		assert.True(t, link.Active)
		assert.NotEmpty(t, link.URLHash)
		assert.WithinDuration(t, time.Now(), link.CreatedAt, time.Minute)
	})

	t.Run("deduplicates identical urls", func(t *testing.T) {
		svc := newTestService(store.NewMemoryStore())

		first, _, err := svc.Create(context.Background(), testURL)
		require.NoError(t, err)

		second, deduplicated, err := svc.Create(context.Background(), testURL)
		require.NoError(t, err)

		assert.True(t, deduplicated)
		assert.Equal(t, first.Code, second.Code)
	})

	t.Run("deduplicates equivalent urls after normalization", func(t *testing.T) {
		svc := newTestService(store.NewMemoryStore())

		first, _, err := svc.Create(context.Background(), "https://example.org/page")
		require.NoError(t, err)

		second, deduplicated, err := svc.Create(context.Background(), "https://EXAMPLE.org/page/")
		require.NoError(t, err)

		assert.True(t, deduplicated)
		assert.Equal(t, first.Code, second.Code)
	})

	t.Run("different urls get different codes", func(t *testing.T) {
		svc := newTestService(store.NewMemoryStore())

		first, _, err := svc.Create(context.Background(), "https://example.org/one")
		require.NoError(t, err)

		second, _, err := svc.Create(context.Background(), "https://example.org/two")
		require.NoError(t, err)

		assert.NotEqual(t, first.Code, second.Code)
	})

	t.Run("rejects invalid urls", func(t *testing.T) {
		svc := newTestService(store.NewMemoryStore())

		for _, raw := range []string{"", "ftp://example.org", "not a url", "http://localhost/x"} {
			_, _, err := svc.Create(context.Background(), raw)
			assert.ErrorIs(t, err, shortener.ErrInvalidURL, "url %q", raw)
		}
	})

	t.Run("retries allocation on code conflict", func(t *testing.T) {
		repo := &mockRepo{insertErrs: []error{shortener.ErrConflict, nil}}
		svc := newTestService(repo)

		link, deduplicated, err := svc.Create(context.Background(), testURL)

		require.NoError(t, err)
		assert.False(t, deduplicated)
		assert.NotNil(t, link)
		assert.Len(t, repo.inserted, 1)
	})

	t.Run("returns the winner on a duplicate-url race", func(t *testing.T) {
		winner := &shortener.ShortLink{Code: "winner", DestinationURL: testURL, Active: true}
		repo := &mockRepo{
			insertErrs:         []error{shortener.ErrDuplicateURL},
			getByHashLink:      winner,
			getByHashMissFirst: true,
		}
		svc := newTestService(repo)

		link, deduplicated, err := svc.Create(context.Background(), testURL)

		require.NoError(t, err)
		assert.True(t, deduplicated)
		assert.Equal(t, shortener.Code("winner"), link.Code)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		repo := &mockRepo{insertErr: shortener.ErrConflict}
		svc := newTestService(repo)

		_, _, err := svc.Create(context.Background(), testURL)

		assert.ErrorIs(t, err, shortener.ErrAllocationExhausted)
	})

	t.Run("100 concurrent creations produce distinct codes", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		svc := newTestService(memStore)

		var wg sync.WaitGroup

		codes := make(chan shortener.Code, 100)

		for i := 0; i < 100; i++ {
			wg.Add(1)

			go func(n int) {
				defer wg.Done()

				link, _, err := svc.Create(context.Background(),
					"https://example.org/page/"+string(rune('a'+n%26))+"/"+string(rune('a'+n/26)))
				if err == nil {
					codes <- link.Code
				}
			}(i)
		}

		wg.Wait()
		close(codes)

		seen := make(map[shortener.Code]bool)
		for code := range codes {
			assert.False(t, seen[code], "duplicate code %s", code)
			seen[code] = true
		}
	})
}

func TestService_Deactivate(t *testing.T) {
	t.Run("deactivates an existing link", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		svc := newTestService(memStore)

		link, _, err := svc.Create(context.Background(), testURL)
		require.NoError(t, err)

		require.NoError(t, svc.Deactivate(context.Background(), link.Code))

		got, err := memStore.GetByCode(context.Background(), link.Code)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("returns ErrNotFound for unknown codes", func(t *testing.T) {
		svc := newTestService(store.NewMemoryStore())

		err := svc.Deactivate(context.Background(), "missing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("frees the destination url for re-shortening", func(t *testing.T) {
		svc := newTestService(store.NewMemoryStore())

		first, _, err := svc.Create(context.Background(), testURL)
		require.NoError(t, err)

		require.NoError(t, svc.Deactivate(context.Background(), first.Code))

		second, deduplicated, err := svc.Create(context.Background(), testURL)
		require.NoError(t, err)
		assert.False(t, deduplicated)
		assert.NotEqual(t, first.Code, second.Code)
	})
}
