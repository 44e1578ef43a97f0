package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shortify/shortify/internal/analytics"
)

// MemoryClickStore is an in-memory implementation of analytics.Store.
type MemoryClickStore struct {
	mu     sync.RWMutex
	events []*analytics.ClickEvent
}

// NewMemoryClickStore creates a new in-memory click store.
func NewMemoryClickStore() *MemoryClickStore {
	return &MemoryClickStore{}
}

func (m *MemoryClickStore) SaveClick(_ context.Context, event *analytics.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *event
	m.events = append(m.events, &clone)

	return nil
}

func (m *MemoryClickStore) CountClicks(_ context.Context, filter analytics.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64

	for _, event := range m.events {
		if filter.Matches(event) {
			count++
		}
	}

	return count, nil
}

func (m *MemoryClickStore) ClicksPerDay(_ context.Context, filter analytics.Filter) ([]analytics.DayCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buckets := make(map[time.Time]int64)

	for _, event := range m.events {
		if filter.Matches(event) {
			day := event.OccurredAt.UTC().Truncate(24 * time.Hour)
			buckets[day]++
		}
	}

	out := make([]analytics.DayCount, 0, len(buckets))
	for day, count := range buckets {
		out = append(out, analytics.DayCount{Day: day, Count: count})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })

	return out, nil
}

func (m *MemoryClickStore) TopReferrers(_ context.Context, filter analytics.Filter, limit int) ([]analytics.BucketCount, error) {
	return m.topBuckets(filter, limit, func(e *analytics.ClickEvent) string { return e.Referrer }), nil
}

func (m *MemoryClickStore) TopCampaigns(_ context.Context, filter analytics.Filter, limit int) ([]analytics.BucketCount, error) {
	return m.topBuckets(filter, limit, func(e *analytics.ClickEvent) string { return e.UTMCampaign }), nil
}

func (m *MemoryClickStore) RecentClicks(_ context.Context, filter analytics.Filter, limit int) ([]*analytics.ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*analytics.ClickEvent, 0)

	for _, event := range m.events {
		if filter.Matches(event) {
			clone := *event
			matches = append(matches, &clone)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].OccurredAt.After(matches[j].OccurredAt)
	})

	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}

	return matches, nil
}

func (m *MemoryClickStore) topBuckets(
	filter analytics.Filter, limit int, key func(*analytics.ClickEvent) string,
) []analytics.BucketCount {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buckets := make(map[string]int64)

	for _, event := range m.events {
		if !filter.Matches(event) {
			continue
		}

		if v := key(event); v != "" {
			buckets[v]++
		}
	}

	out := make([]analytics.BucketCount, 0, len(buckets))
	for value, count := range buckets {
		out = append(out, analytics.BucketCount{Value: value, Count: count})
	}

	// Ties break alphabetically for deterministic output.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Value < out[j].Value
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	return out
}

var _ analytics.Store = (*MemoryClickStore)(nil)
