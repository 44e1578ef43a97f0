package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shortify/shortify/internal/ingest"
)

// Checker defines the interface for checking one dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts pgxpool.Pool to Checker.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a new Postgres health checker.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Ping checks Postgres connectivity.
func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// MetricsSource exposes ingestion pipeline counters for the health report.
type MetricsSource interface {
	Metrics() ingest.Metrics
}

// Handler handles health check operations.
type Handler struct {
	postgres Checker
	redis    Checker
	pipeline MetricsSource
}

// NewHandler creates a new health handler. Any dependency may be nil when
// the deployment runs without it.
func NewHandler(postgres, redis Checker, pipeline MetricsSource) *Handler {
	return &Handler{
		postgres: postgres,
		redis:    redis,
		pipeline: pipeline,
	}
}

// Response is the response for the health check endpoint.
type Response struct {
	Body struct {
		Status   string          `json:"status"`
		Postgres string          `json:"postgres,omitempty"`
		Redis    string          `json:"redis,omitempty"`
		Ingest   *ingest.Metrics `json:"ingest,omitempty"`
	}
}

// Check reports the health of the application and its dependencies, plus an
// ingestion metrics snapshot. Ingestion drops degrade analytics, not
// redirects, so they do not affect the status.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"

	if h.postgres != nil {
		if err := h.postgres.Ping(ctx); err != nil {
			resp.Body.Postgres = "unhealthy"
			resp.Body.Status = "degraded"
		} else {
			resp.Body.Postgres = "healthy"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			resp.Body.Redis = "unhealthy"
			resp.Body.Status = "degraded"
		} else {
			resp.Body.Redis = "healthy"
		}
	}

	if h.pipeline != nil {
		metrics := h.pipeline.Metrics()
		resp.Body.Ingest = &metrics
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
