package shortener_test

import (
	"context"
	"testing"

	"github.com/shortify/shortify/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllocator_Allocate(t *testing.T) {
	t.Run("returns a code of the configured length", func(t *testing.T) {
		repo := &mockRepo{}
		allocator := shortener.NewAllocator(repo, 6, zap.NewNop())

		code, err := allocator.Allocate(context.Background())

		require.NoError(t, err)
		assert.Len(t, string(code), 6)
		assert.Equal(t, 1, repo.existsCalls)
	})

	t.Run("codes use the base62 alphabet", func(t *testing.T) {
		repo := &mockRepo{}
		allocator := shortener.NewAllocator(repo, 6, zap.NewNop())

		for i := 0; i < 50; i++ {
			code, err := allocator.Allocate(context.Background())
			require.NoError(t, err)

			for _, r := range string(code) {
				assert.Contains(t, shortener.Alphabet, string(r))
			}
		}
	})

	t.Run("clamps lengths below the minimum", func(t *testing.T) {
		repo := &mockRepo{}
		allocator := shortener.NewAllocator(repo, 1, zap.NewNop())

		code, err := allocator.Allocate(context.Background())

		require.NoError(t, err)
		assert.Len(t, string(code), shortener.DefaultCodeLength)
	})

	t.Run("returns distinct codes", func(t *testing.T) {
		repo := &mockRepo{}
		allocator := shortener.NewAllocator(repo, 6, zap.NewNop())

		seen := make(map[shortener.Code]bool)

		for i := 0; i < 100; i++ {
			code, err := allocator.Allocate(context.Background())
			require.NoError(t, err)
			assert.False(t, seen[code], "duplicate code %s", code)
			seen[code] = true
		}
	})

	t.Run("returns ErrAllocationExhausted when every candidate collides", func(t *testing.T) {
		repo := &mockRepo{existsResult: true}
		allocator := shortener.NewAllocator(repo, 6, zap.NewNop())

		code, err := allocator.Allocate(context.Background())

		assert.Empty(t, code)
		assert.ErrorIs(t, err, shortener.ErrAllocationExhausted)

		// 10 attempts per length from 6 through 10 characters.
		assert.Equal(t, 50, repo.existsCalls)
	})

	t.Run("propagates existence check failures", func(t *testing.T) {
		repo := &mockRepo{existsErr: errMock}
		allocator := shortener.NewAllocator(repo, 6, zap.NewNop())

		_, err := allocator.Allocate(context.Background())

		assert.ErrorIs(t, err, errMock)
	})
}
