package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/shortify/shortify/internal/analytics"
	"github.com/shortify/shortify/internal/handlers"
	"github.com/shortify/shortify/internal/middleware"
	"github.com/shortify/shortify/internal/shortener"
	"github.com/shortify/shortify/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBaseURL = "http://localhost:8888"

// capturedClicks records submitted click events for assertions.
type capturedClicks struct {
	mu     sync.Mutex
	events []*analytics.ClickEvent
}

func (c *capturedClicks) Submit(event *analytics.ClickEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)
}

func (c *capturedClicks) all() []*analytics.ClickEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*analytics.ClickEvent(nil), c.events...)
}

// erroringRepo fails every operation, for 500-path tests.
type erroringRepo struct{ err error }

func (r *erroringRepo) GetByCode(context.Context, shortener.Code) (*shortener.ShortLink, error) {
	return nil, r.err
}

func (r *erroringRepo) GetByHash(context.Context, shortener.URLHash) (*shortener.ShortLink, error) {
	return nil, r.err
}

func (r *erroringRepo) Exists(context.Context, shortener.Code) (bool, error) {
	return false, r.err
}

func (r *erroringRepo) Insert(context.Context, *shortener.ShortLink) error { return r.err }

func (r *erroringRepo) Deactivate(context.Context, shortener.Code) error { return r.err }

func (r *erroringRepo) List(context.Context, shortener.ListFilter) ([]*shortener.ShortLink, error) {
	return nil, r.err
}

func (r *erroringRepo) IncrementClicks(context.Context, shortener.Code) error { return r.err }

type testEnv struct {
	router *chi.Mux
	links  *store.MemoryStore
	clicks *store.MemoryClickStore
	events *capturedClicks
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	return setupEnvWithRepo(t, store.NewMemoryStore())
}

func setupEnvWithRepo(t *testing.T, repo shortener.Repository) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	allocator := shortener.NewAllocator(repo, shortener.DefaultCodeLength, logger)
	service := shortener.NewService(repo, allocator, logger)

	clicks := store.NewMemoryClickStore()
	events := &capturedClicks{}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	handlers.RegisterRoutes(api,
		handlers.NewLinkHandler(service, repo, testBaseURL, logger),
		handlers.NewRedirectHandler(repo, events, logger),
		handlers.NewStatsHandler(clicks, repo, logger),
	)

	env := &testEnv{
		router: router,
		clicks: clicks,
		events: events,
	}

	if mem, ok := repo.(*store.MemoryStore); ok {
		env.links = mem
	}

	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func (e *testEnv) shorten(t *testing.T, url string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/shorten", map[string]string{"url": url})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Code string `json:"code"`
	}

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Code)

	return resp.Code
}
