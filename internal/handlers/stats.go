package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shortify/shortify/internal/analytics"
	"github.com/shortify/shortify/internal/shortener"
	"go.uber.org/zap"
)

// StatsHandler serves the dashboard query layer: filtered aggregates over
// the click event set. Reads lag the redirect path by the ingestion window.
type StatsHandler struct {
	reader analytics.Reader
	repo   shortener.Repository
	logger *zap.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(reader analytics.Reader, repo shortener.Repository, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		reader: reader,
		repo:   repo,
		logger: logger,
	}
}

func (h *StatsHandler) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	filter := analytics.Filter{
		LinkCode:         req.Code,
		UTMSource:        req.UTMSource,
		UTMMedium:        req.UTMMedium,
		UTMCampaign:      req.UTMCampaign,
		ReferrerContains: req.Referrer,
	}

	var err error

	filter.From, err = parseTimeBound(req.From, false)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid 'from' date")
	}

	filter.To, err = parseTimeBound(req.To, true)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid 'to' date")
	}

	report, err := analytics.BuildReport(ctx, h.reader, filter)
	if err != nil {
		h.logger.Error("failed to build report", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to build report")
	}

	resp := &StatsResponse{}
	resp.Body.Report = report

	return resp, nil
}

func (h *StatsHandler) GetLinkStats(ctx context.Context, req *LinkStatsRequest) (*LinkStatsResponse, error) {
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

	filter := analytics.Filter{
		LinkCode:    req.Code,
		UTMSource:   req.UTMSource,
		UTMCampaign: req.UTMCampaign,
	}

	filter.From, err = parseTimeBound(req.From, false)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid 'from' date")
	}

	filter.To, err = parseTimeBound(req.To, true)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid 'to' date")
	}

	report, err := analytics.BuildReport(ctx, h.reader, filter)
	if err != nil {
		h.logger.Error("failed to build report",
			zap.String("code", req.Code),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to build report")
	}

	resp := &LinkStatsResponse{}
	resp.Body.Link = linkSummary(link)
	resp.Body.Report = report

	return resp, nil
}
