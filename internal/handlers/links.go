package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shortify/shortify/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler handles link creation, deactivation, and listing.
type LinkHandler struct {
	service *shortener.Service
	repo    shortener.Repository
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	service *shortener.Service,
	repo shortener.Repository,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service: service,
		repo:    repo,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, deduplicated, err := h.service.Create(ctx, req.Body.URL)
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidURL):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, shortener.ErrAllocationExhausted):
			return nil, huma.Error503ServiceUnavailable("could not allocate a short code, retry later")
		default:
			h.logger.Error("failed to create link", zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to create link")
		}
	}

	shortURL := fmt.Sprintf("%s/%s", h.baseURL, link.Code)

	resp := &CreateLinkResponse{}
	resp.Location = shortURL
	resp.Body.Code = string(link.Code)
	resp.Body.ShortURL = shortURL
	resp.Body.DestinationURL = link.DestinationURL
	resp.Body.Deduplicated = deduplicated

	return resp, nil
}

func (h *LinkHandler) DeactivateLink(ctx context.Context, req *DeactivateLinkRequest) (*DeactivateLinkResponse, error) {
	err := h.service.Deactivate(ctx, shortener.Code(req.Code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		h.logger.Error("failed to deactivate link",
			zap.String("code", req.Code),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to deactivate link")
	}

	return &DeactivateLinkResponse{}, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, req *ListLinksRequest) (*ListLinksResponse, error) {
	filter := shortener.ListFilter{
		Search: req.Search,
		Sort:   shortener.SortKey(req.Sort),
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if filter.Limit == 0 {
		filter.Limit = 20
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

	links, err := h.repo.List(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to list links")
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = make([]LinkSummary, 0, len(links))

	for _, link := range links {
		resp.Body.Links = append(resp.Body.Links, linkSummary(link))
	}

	return resp, nil
}

func linkSummary(link *shortener.ShortLink) LinkSummary {
	return LinkSummary{
		Code:           string(link.Code),
		DestinationURL: link.DestinationURL,
		CreatedAt:      link.CreatedAt,
		Active:         link.Active,
		ClickCount:     link.ClickCount,
	}
}

// parseTimeBound accepts YYYY-MM-DD or RFC 3339. A date-only upper bound is
// stretched to the end of that day.
func parseTimeBound(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}

		return &t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
