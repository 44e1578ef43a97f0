package shortener_test

import (
	"context"
	"errors"

	"github.com/shortify/shortify/internal/shortener"
)

var errMock = errors.New("mock error")

// mockRepo is a configurable test double for shortener.Repository.
type mockRepo struct {
	existsResult  bool
	existsErr     error
	insertErr     error
	insertErrs    []error // consumed one per call when non-empty
	getByHashLink *shortener.ShortLink
	getByHashErr  error

	// getByHashMissFirst makes the first lookup miss, simulating a link
	// that appears between the dedup check and the insert.
	getByHashMissFirst bool
	deactivateErr      error

	existsCalls    int
	getByHashCalls int
	inserted       []*shortener.ShortLink
}

func (m *mockRepo) GetByCode(_ context.Context, _ shortener.Code) (*shortener.ShortLink, error) {
	return nil, shortener.ErrNotFound
}

func (m *mockRepo) GetByHash(_ context.Context, _ shortener.URLHash) (*shortener.ShortLink, error) {
	m.getByHashCalls++

	if m.getByHashErr != nil {
		return nil, m.getByHashErr
	}

	if m.getByHashMissFirst && m.getByHashCalls == 1 {
		return nil, shortener.ErrNotFound
	}

	if m.getByHashLink != nil {
		return m.getByHashLink, nil
	}

	return nil, shortener.ErrNotFound
}

func (m *mockRepo) Exists(_ context.Context, _ shortener.Code) (bool, error) {
	m.existsCalls++

	return m.existsResult, m.existsErr
}

func (m *mockRepo) Insert(_ context.Context, link *shortener.ShortLink) error {
	if len(m.insertErrs) > 0 {
		err := m.insertErrs[0]
		m.insertErrs = m.insertErrs[1:]

		if err != nil {
			return err
		}
	} else if m.insertErr != nil {
		return m.insertErr
	}

	m.inserted = append(m.inserted, link)

	return nil
}

func (m *mockRepo) Deactivate(_ context.Context, _ shortener.Code) error {
	return m.deactivateErr
}

func (m *mockRepo) List(_ context.Context, _ shortener.ListFilter) ([]*shortener.ShortLink, error) {
	return nil, nil
}

func (m *mockRepo) IncrementClicks(_ context.Context, _ shortener.Code) error {
	return nil
}
