package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shortify/shortify/internal/analytics"
	"github.com/shortify/shortify/internal/shortener"
	"go.uber.org/zap"
)

// ClickSubmitter accepts click events without blocking. Satisfied by the
// ingestion pipeline.
type ClickSubmitter interface {
	Submit(event *analytics.ClickEvent)
}

// RedirectHandler serves the redirect hot path. The link store lookup is the
// only synchronous dependency; click capture is handed off to the ingestion
// pipeline before the response is returned and never waits on persistence.
type RedirectHandler struct {
	repo   shortener.Repository
	clicks ClickSubmitter
	logger *zap.Logger
}

// NewRedirectHandler creates a new redirect handler.
func NewRedirectHandler(repo shortener.Repository, clicks ClickSubmitter, logger *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		repo:   repo,
		clicks: clicks,
		logger: logger,
	}
}

// Redirect resolves a short code. Unknown or deactivated codes get a 404 and
// record no click event. Active codes get a 302 pointing at the destination;
// 302 keeps resolution under the link owner's control, since a 301 would let
// clients cache the mapping past a deactivation.
func (h *RedirectHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.repo.GetByCode(ctx, shortener.Code(req.Code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		h.logger.Error("link lookup failed",
			zap.String("code", req.Code),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to resolve short link")
	}

	if !link.Active {
		return nil, huma.Error404NotFound("short link not found")
	}

	// Extraction is cheap and pure, so it runs inline; the write is
	// fire-and-forget.
	meta := RequestMetaFromContext(ctx)
	h.clicks.Submit(analytics.EventFromRequest(
		req.Code,
		time.Now().UTC(),
		meta.RawQuery,
		meta.Referrer,
		meta.UserAgent,
		meta.ClientIP,
	))

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Location = link.DestinationURL

	return resp, nil
}
