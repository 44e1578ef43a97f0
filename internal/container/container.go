package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/shortify/shortify/internal/analytics"
	"github.com/shortify/shortify/internal/handlers"
	"github.com/shortify/shortify/internal/health"
	"github.com/shortify/shortify/internal/ingest"
	"github.com/shortify/shortify/internal/messaging"
	"github.com/shortify/shortify/internal/middleware"
	"github.com/shortify/shortify/internal/shortener"
	"github.com/shortify/shortify/internal/store"
	"go.uber.org/zap"
)

// Sink modes for the ingestion pipeline.
const (
	SinkStore  = "store"
	SinkStream = "stream"
)

// Options holds the runtime configuration, populated by humacli from flags
// and environment variables.
type Options struct {
	Port        int    `default:"8888"           help:"Port to listen on"                                          short:"p"`
	BaseURL     string `default:""               help:"Public base URL for short links (default http://localhost:<port>)"`
	CodeLength  int    `default:"6"              help:"Minimum length of generated short codes"                    short:"c"`
	PostgresDSN string `default:""               help:"PostgreSQL DSN; empty runs on the in-memory stores"         name:"postgres-dsn"`
	AutoMigrate bool   `default:"true"           help:"Apply schema migrations on startup"`
	RedisAddr   string `default:"localhost:6379" help:"Redis server address"                                       short:"r"`
	CacheTTL    int    `default:"300"            help:"Link cache TTL in seconds; 0 disables the Redis cache"`
	QueueSize   int    `default:"1024"           help:"Click ingestion queue capacity"`
	Workers     int    `default:"2"              help:"Click ingestion worker count"`
	MaxAttempts int    `default:"3"              help:"Click persistence attempts before dropping an event"`
	IngestSink  string `default:"store"          enum:"store,stream"                                               help:"Click sink: write to the store directly or publish to the Redis stream"`
	LogFormat   string `default:"console"        enum:"console,json"                                               help:"Log output format"`
}

func (o *Options) baseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: options.RedisAddr}), nil
	})
}

// PostgresPackage provides the pgx pool and applies migrations. The provider
// is lazy: running fully in-memory never connects.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), options.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}

		if options.AutoMigrate {
			if err := store.Migrate(pool); err != nil {
				pool.Close()

				return nil, err
			}
		}

		return pool, nil
	})
}

// RepositoryPackage provides the link repository, the click store, the code
// allocator, and the link service. With a Postgres DSN the link repository
// is wrapped in the Redis read cache for the redirect hot path; without one
// everything runs in-memory.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.PostgresDSN == "" {
			logger.Warn("no postgres dsn configured, links are not durable")

			return store.NewMemoryStore(), nil
		}

		pool := do.MustInvoke[*pgxpool.Pool](i)

		var repo shortener.Repository = store.NewPostgresStore(pool)

		if options.CacheTTL > 0 {
			client := do.MustInvoke[*redis.Client](i)
			ttl := time.Duration(options.CacheTTL) * time.Second
			repo = store.NewRedisCacheRepository(repo, client, ttl)
		}

		return repo, nil
	})

	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return store.NewMemoryClickStore(), nil
		}

		return store.NewPostgresClickStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Allocator, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewAllocator(
			do.MustInvoke[shortener.Repository](i),
			options.CodeLength,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*shortener.Allocator](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// PublisherGroupPackage provides the watermill Redis stream publisher.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: do.MustInvoke[*redis.Client](i)},
			messaging.NewZapLoggerAdapter(do.MustInvoke[*zap.Logger](i)),
		)
		if err != nil {
			return nil, fmt.Errorf("creating stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// IngestPackage provides the click ingestion pipeline with the configured
// sink.
func IngestPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ingest.Pipeline, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var sink ingest.Sink

		switch options.IngestSink {
		case SinkStream:
			group := do.MustInvoke[*messaging.PublisherGroup](i)
			publish := messaging.NewPublishFunc[analytics.ClickEvent](group.Publisher(), analytics.TopicLinkClicked)
			sink = ingest.NewPublishSink(publish)
		case SinkStore:
			sink = ingest.NewStoreSink(
				do.MustInvoke[analytics.Store](i),
				do.MustInvoke[shortener.Repository](i),
				logger,
			)
		default:
			return nil, fmt.Errorf("unknown ingest sink %q", options.IngestSink)
		}

		cfg := ingest.Config{
			QueueSize:   options.QueueSize,
			Workers:     options.Workers,
			MaxAttempts: options.MaxAttempts,
		}

		return ingest.NewPipeline(sink, cfg, logger), nil
	})
}

// HTTPPackage provides the chi router and the huma API with all routes and
// middleware registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		repo := do.MustInvoke[shortener.Repository](i)
		clickStore := do.MustInvoke[analytics.Store](i)
		pipeline := do.MustInvoke[*ingest.Pipeline](i)

		router := do.MustInvoke[*chi.Mux](i)
		api := humachi.New(router, huma.DefaultConfig("Shortify", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		linkHandler := handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Service](i),
			repo,
			options.baseURL(),
			logger,
		)
		redirectHandler := handlers.NewRedirectHandler(repo, pipeline, logger)
		statsHandler := handlers.NewStatsHandler(clickStore, repo, logger)

		handlers.RegisterRoutes(api, linkHandler, redirectHandler, statsHandler)

		var postgresChecker, redisChecker health.Checker

		if options.PostgresDSN != "" {
			postgresChecker = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
		}

		if options.CacheTTL > 0 || options.IngestSink == SinkStream {
			redisChecker = health.NewRedisChecker(do.MustInvoke[*redis.Client](i))
		}

		health.RegisterRoutes(api, health.NewHandler(postgresChecker, redisChecker, pipeline))

		return api, nil
	})
}

// ConsumerGroupPackage provides the consumer group that persists click
// events from the Redis stream. Used by the consumer binary when the server
// runs with the stream sink.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*redis.Client](i),
				ConsumerGroup: "click-ingest",
			},
			messaging.NewZapLoggerAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("creating stream subscriber: %w", err)
		}

		sink := ingest.NewStoreSink(
			do.MustInvoke[analytics.Store](i),
			do.MustInvoke[shortener.Repository](i),
			logger,
		)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			analytics.TopicLinkClicked,
			func(ctx context.Context, event *analytics.ClickEvent) error {
				return sink.Save(ctx, event)
			},
			logger,
		))

		return group, nil
	})
}
