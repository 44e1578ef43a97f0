//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shortify/shortify/internal/analytics"
	"github.com/shortify/shortify/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClickStore_Integration(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	s := store.NewPostgresClickStore(pool)

	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 15, 30, 0, 0, time.UTC)

	events := []*analytics.ClickEvent{
		{LinkCode: "aZ3kT9", OccurredAt: day1, UTMSource: "newsletter", UTMCampaign: "spring", Referrer: "https://news.example.org", UserAgent: "curl/8.0", IPAddress: "203.0.113.7"},
		{LinkCode: "aZ3kT9", OccurredAt: day1.Add(time.Hour), UTMSource: "newsletter", UTMCampaign: "spring", Referrer: "https://news.example.org"},
		{LinkCode: "aZ3kT9", OccurredAt: day2, UTMSource: "twitter", UTMCampaign: "launch", Referrer: "https://t.co/x"},
		{LinkCode: "bY2jS8", OccurredAt: day2.Add(time.Hour), Referrer: "https://blog.example.org"},
	}

	for _, event := range events {
		require.NoError(t, s.SaveClick(ctx, event))
	}

	t.Run("count clicks", func(t *testing.T) {
		count, err := s.CountClicks(ctx, analytics.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)

		count, err = s.CountClicks(ctx, analytics.Filter{UTMSource: "newsletter"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		count, err = s.CountClicks(ctx, analytics.Filter{LinkCode: "aZ3kT9", UTMCampaign: "launch"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("clicks per day", func(t *testing.T) {
		days, err := s.ClicksPerDay(ctx, analytics.Filter{})
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), days[0].Day.UTC())
		assert.Equal(t, int64(2), days[0].Count)
		assert.Equal(t, int64(2), days[1].Count)
	})

	t.Run("top referrers", func(t *testing.T) {
		referrers, err := s.TopReferrers(ctx, analytics.Filter{}, 10)
		require.NoError(t, err)
		require.Len(t, referrers, 3)
		assert.Equal(t, analytics.BucketCount{Value: "https://news.example.org", Count: 2}, referrers[0])
	})

	t.Run("top campaigns skip empty values", func(t *testing.T) {
		campaigns, err := s.TopCampaigns(ctx, analytics.Filter{}, 10)
		require.NoError(t, err)
		require.Len(t, campaigns, 2)
		assert.Equal(t, "spring", campaigns[0].Value)
	})

	t.Run("recent clicks newest first", func(t *testing.T) {
		recent, err := s.RecentClicks(ctx, analytics.Filter{}, 10)
		require.NoError(t, err)
		require.Len(t, recent, 4)
		assert.Equal(t, "bY2jS8", recent[0].LinkCode)
		assert.Equal(t, "curl/8.0", recent[3].UserAgent)
	})

	t.Run("time window", func(t *testing.T) {
		from := day2
		count, err := s.CountClicks(ctx, analytics.Filter{From: &from})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("referrer substring", func(t *testing.T) {
		count, err := s.CountClicks(ctx, analytics.Filter{ReferrerContains: "News.example"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
