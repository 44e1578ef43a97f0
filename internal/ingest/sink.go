package ingest

import (
	"context"
	"errors"

	"github.com/shortify/shortify/internal/analytics"
	"github.com/shortify/shortify/internal/messaging"
	"github.com/shortify/shortify/internal/shortener"
	"go.uber.org/zap"
)

// Sink receives click events from the pipeline workers.
type Sink interface {
	Save(ctx context.Context, event *analytics.ClickEvent) error
}

// StoreSink persists click events directly to the click store and bumps the
// link's denormalized click counter. Used in single-process mode, and by the
// consumer binary on the stream path.
type StoreSink struct {
	clicks analytics.Writer
	links  shortener.Repository
	logger *zap.Logger
}

// NewStoreSink creates a sink writing straight to the click store.
func NewStoreSink(clicks analytics.Writer, links shortener.Repository, logger *zap.Logger) *StoreSink {
	return &StoreSink{
		clicks: clicks,
		links:  links,
		logger: logger,
	}
}

func (s *StoreSink) Save(ctx context.Context, event *analytics.ClickEvent) error {
	if err := s.clicks.SaveClick(ctx, event); err != nil {
		return err
	}

	// Counter maintenance is best-effort: the event is the source of truth
	// and the link may have been deactivated since the click.
	err := s.links.IncrementClicks(ctx, shortener.Code(event.LinkCode))
	if err != nil && !errors.Is(err, shortener.ErrNotFound) {
		s.logger.Warn("failed to bump click counter",
			zap.String("code", event.LinkCode),
			zap.Error(err),
		)
	}

	return nil
}

// PublishSink forwards click events to the message stream instead of writing
// them locally. A separate consumer persists them.
type PublishSink struct {
	publish messaging.Publish[analytics.ClickEvent]
}

// NewPublishSink creates a sink publishing to the click topic.
func NewPublishSink(publish messaging.Publish[analytics.ClickEvent]) *PublishSink {
	return &PublishSink{publish: publish}
}

func (s *PublishSink) Save(_ context.Context, event *analytics.ClickEvent) error {
	return s.publish(event)
}

// Compile-time checks.
var (
	_ Sink = (*StoreSink)(nil)
	_ Sink = (*PublishSink)(nil)
)
