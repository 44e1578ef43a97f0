package analytics

import (
	"context"
	"strings"
	"time"
)

// Filter narrows an aggregate query over the click event set. Zero-valued
// fields are ignored.
type Filter struct {
	From             *time.Time
	To               *time.Time
	LinkCode         string
	UTMSource        string
	UTMMedium        string
	UTMCampaign      string
	ReferrerContains string
}

// Matches reports whether an event falls inside the filter. In-memory stores
// use it directly; SQL stores translate the same semantics to WHERE clauses.
func (f Filter) Matches(event *ClickEvent) bool {
	if f.From != nil && event.OccurredAt.Before(*f.From) {
		return false
	}

	if f.To != nil && event.OccurredAt.After(*f.To) {
		return false
	}

	if f.LinkCode != "" && event.LinkCode != f.LinkCode {
		return false
	}

	if f.UTMSource != "" && event.UTMSource != f.UTMSource {
		return false
	}

	if f.UTMMedium != "" && event.UTMMedium != f.UTMMedium {
		return false
	}

	if f.UTMCampaign != "" && event.UTMCampaign != f.UTMCampaign {
		return false
	}

	if f.ReferrerContains != "" && !containsFold(event.Referrer, f.ReferrerContains) {
		return false
	}

	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// DayCount is a clicks-per-day bucket. Day is midnight UTC.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// BucketCount is a count for one breakdown value (referrer, campaign).
type BucketCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Writer persists click events. Owned by the ingestion pipeline.
type Writer interface {
	SaveClick(ctx context.Context, event *ClickEvent) error
}

// Reader aggregates persisted click events for dashboard queries. Reads are
// eventually consistent with the asynchronous ingestion pipeline.
type Reader interface {
	CountClicks(ctx context.Context, filter Filter) (int64, error)
	ClicksPerDay(ctx context.Context, filter Filter) ([]DayCount, error)
	TopReferrers(ctx context.Context, filter Filter, limit int) ([]BucketCount, error)
	TopCampaigns(ctx context.Context, filter Filter, limit int) ([]BucketCount, error)
	RecentClicks(ctx context.Context, filter Filter, limit int) ([]*ClickEvent, error)
}

// Store combines click persistence and aggregation.
type Store interface {
	Writer
	Reader
}

// Report is the aggregate view served to dashboards.
type Report struct {
	TotalClicks  int64         `json:"totalClicks"`
	ClicksPerDay []DayCount    `json:"clicksPerDay"`
	TopReferrers []BucketCount `json:"topReferrers"`
	TopCampaigns []BucketCount `json:"topCampaigns"`
	RecentClicks []*ClickEvent `json:"recentClicks"`
}

// DefaultBreakdownLimit bounds top-N breakdowns in a report.
const DefaultBreakdownLimit = 10

// DefaultRecentLimit bounds the recent-clicks listing in a report.
const DefaultRecentLimit = 50

// BuildReport runs the full set of aggregate queries for a filter.
func BuildReport(ctx context.Context, reader Reader, filter Filter) (*Report, error) {
	total, err := reader.CountClicks(ctx, filter)
	if err != nil {
		return nil, err
	}

	perDay, err := reader.ClicksPerDay(ctx, filter)
	if err != nil {
		return nil, err
	}

	referrers, err := reader.TopReferrers(ctx, filter, DefaultBreakdownLimit)
	if err != nil {
		return nil, err
	}

	campaigns, err := reader.TopCampaigns(ctx, filter, DefaultBreakdownLimit)
	if err != nil {
		return nil, err
	}

	recent, err := reader.RecentClicks(ctx, filter, DefaultRecentLimit)
	if err != nil {
		return nil, err
	}

	return &Report{
		TotalClicks:  total,
		ClicksPerDay: perDay,
		TopReferrers: referrers,
		TopCampaigns: campaigns,
		RecentClicks: recent,
	}, nil
}
