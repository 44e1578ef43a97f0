package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shortify/shortify/internal/analytics"
)

// PostgresClickStore is a PostgreSQL implementation of analytics.Store.
// Aggregate queries are built dynamically from the filter with squirrel.
type PostgresClickStore struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

// NewPostgresClickStore creates a new PostgreSQL-backed click store.
func NewPostgresClickStore(pool *pgxpool.Pool) *PostgresClickStore {
	return &PostgresClickStore{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (p *PostgresClickStore) SaveClick(ctx context.Context, event *analytics.ClickEvent) error {
	query := `
		INSERT INTO click_events (
			link_code, occurred_at,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			referrer, user_agent, ip_address
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := p.pool.Exec(ctx, query,
		event.LinkCode,
		event.OccurredAt,
		event.UTMSource,
		event.UTMMedium,
		event.UTMCampaign,
		event.UTMTerm,
		event.UTMContent,
		event.Referrer,
		event.UserAgent,
		event.IPAddress,
	)

	return err
}

func (p *PostgresClickStore) CountClicks(ctx context.Context, filter analytics.Filter) (int64, error) {
	query, args, err := p.where(p.builder.Select("COUNT(*)").From("click_events"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var count int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (p *PostgresClickStore) ClicksPerDay(ctx context.Context, filter analytics.Filter) ([]analytics.DayCount, error) {
	q := p.where(
		p.builder.
			Select("date_trunc('day', occurred_at AT TIME ZONE 'UTC') AS day", "COUNT(*)").
			From("click_events"),
		filter,
	).GroupBy("day").OrderBy("day ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building per-day query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analytics.DayCount

	for rows.Next() {
		var dc analytics.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}

		out = append(out, dc)
	}

	return out, rows.Err()
}

func (p *PostgresClickStore) TopReferrers(ctx context.Context, filter analytics.Filter, limit int) ([]analytics.BucketCount, error) {
	return p.topBuckets(ctx, filter, "referrer", limit)
}

func (p *PostgresClickStore) TopCampaigns(ctx context.Context, filter analytics.Filter, limit int) ([]analytics.BucketCount, error) {
	return p.topBuckets(ctx, filter, "utm_campaign", limit)
}

func (p *PostgresClickStore) topBuckets(
	ctx context.Context, filter analytics.Filter, column string, limit int,
) ([]analytics.BucketCount, error) {
	q := p.where(
		p.builder.Select(column, "COUNT(*) AS clicks").From("click_events"),
		filter,
	).
		Where(sq.NotEq{column: ""}).
		GroupBy(column).
		OrderBy("clicks DESC", column+" ASC").
		Limit(uint64(limit))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building breakdown query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analytics.BucketCount

	for rows.Next() {
		var bc analytics.BucketCount
		if err := rows.Scan(&bc.Value, &bc.Count); err != nil {
			return nil, err
		}

		out = append(out, bc)
	}

	return out, rows.Err()
}

func (p *PostgresClickStore) RecentClicks(
	ctx context.Context, filter analytics.Filter, limit int,
) ([]*analytics.ClickEvent, error) {
	q := p.where(
		p.builder.
			Select(
				"link_code", "occurred_at",
				"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
				"referrer", "user_agent", "ip_address",
			).
			From("click_events"),
		filter,
	).OrderBy("occurred_at DESC").Limit(uint64(limit))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building recent-clicks query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*analytics.ClickEvent

	for rows.Next() {
		var event analytics.ClickEvent

		err = rows.Scan(
			&event.LinkCode,
			&event.OccurredAt,
			&event.UTMSource,
			&event.UTMMedium,
			&event.UTMCampaign,
			&event.UTMTerm,
			&event.UTMContent,
			&event.Referrer,
			&event.UserAgent,
			&event.IPAddress,
		)
		if err != nil {
			return nil, err
		}

		out = append(out, &event)
	}

	return out, rows.Err()
}

func (p *PostgresClickStore) where(q sq.SelectBuilder, filter analytics.Filter) sq.SelectBuilder {
	if filter.From != nil {
		q = q.Where(sq.GtOrEq{"occurred_at": *filter.From})
	}

	if filter.To != nil {
		q = q.Where(sq.LtOrEq{"occurred_at": *filter.To})
	}

	if filter.LinkCode != "" {
		q = q.Where(sq.Eq{"link_code": filter.LinkCode})
	}

	if filter.UTMSource != "" {
		q = q.Where(sq.Eq{"utm_source": filter.UTMSource})
	}

	if filter.UTMMedium != "" {
		q = q.Where(sq.Eq{"utm_medium": filter.UTMMedium})
	}

	if filter.UTMCampaign != "" {
		q = q.Where(sq.Eq{"utm_campaign": filter.UTMCampaign})
	}

	if filter.ReferrerContains != "" {
		q = q.Where(sq.ILike{"referrer": "%" + filter.ReferrerContains + "%"})
	}

	return q
}

var _ analytics.Store = (*PostgresClickStore)(nil)
