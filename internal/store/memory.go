package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shortify/shortify/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
// Used in tests and for running without Postgres.
type MemoryStore struct {
	mu     sync.RWMutex
	links  map[shortener.Code]*shortener.ShortLink
	hashes map[shortener.URLHash]shortener.Code // active links only
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[shortener.Code]*shortener.ShortLink),
		hashes: make(map[shortener.URLHash]shortener.Code),
	}
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	clone := *link

	return &clone, nil
}

func (m *MemoryStore) GetByHash(_ context.Context, hash shortener.URLHash) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.hashes[hash]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	clone := *m.links[code]

	return &clone, nil
}

func (m *MemoryStore) Exists(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.links[code]

	return ok, nil
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Code]; ok {
		return shortener.ErrConflict
	}

	if link.URLHash != "" {
		if _, ok := m.hashes[link.URLHash]; ok {
			return shortener.ErrDuplicateURL
		}
	}

	clone := *link
	m.links[link.Code] = &clone

	if link.Active && link.URLHash != "" {
		m.hashes[link.URLHash] = link.Code
	}

	return nil
}

func (m *MemoryStore) Deactivate(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return shortener.ErrNotFound
	}

	link.Active = false

	// Deactivated links stop participating in URL dedup, so the same
	// destination can be shortened again.
	if link.URLHash != "" {
		delete(m.hashes, link.URLHash)
	}

	return nil
}

func (m *MemoryStore) List(_ context.Context, filter shortener.ListFilter) ([]*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*shortener.ShortLink, 0, len(m.links))

	search := strings.ToLower(filter.Search)

	for _, link := range m.links {
		if search != "" &&
			!strings.Contains(strings.ToLower(string(link.Code)), search) &&
			!strings.Contains(strings.ToLower(link.DestinationURL), search) {
			continue
		}

		if filter.From != nil && link.CreatedAt.Before(*filter.From) {
			continue
		}

		if filter.To != nil && link.CreatedAt.After(*filter.To) {
			continue
		}

		clone := *link
		matches = append(matches, &clone)
	}

	sortLinks(matches, filter.Sort)

	return paginate(matches, filter.Offset, filter.Limit), nil
}

func (m *MemoryStore) IncrementClicks(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if link, ok := m.links[code]; ok {
		link.ClickCount++
	}

	return nil
}

func sortLinks(links []*shortener.ShortLink, key shortener.SortKey) {
	less := func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) }

	switch key {
	case shortener.SortCreatedAsc:
		less = func(i, j int) bool { return links[i].CreatedAt.Before(links[j].CreatedAt) }
	case shortener.SortClicksDesc:
		less = func(i, j int) bool { return links[i].ClickCount > links[j].ClickCount }
	case shortener.SortClicksAsc:
		less = func(i, j int) bool { return links[i].ClickCount < links[j].ClickCount }
	case shortener.SortCreatedDesc:
	default:
	}

	sort.SliceStable(links, less)
}

func paginate(links []*shortener.ShortLink, offset, limit int) []*shortener.ShortLink {
	if offset >= len(links) {
		return nil
	}

	links = links[offset:]

	if limit > 0 && limit < len(links) {
		links = links[:limit]
	}

	return links
}

var _ shortener.Repository = (*MemoryStore)(nil)
