package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shortify/shortify/internal/shortener"
)

const (
	pgUniqueViolation = "23505"

	// Constraint names from the migrations; used to tell a code race from
	// a destination-URL race.
	codeConstraint = "short_links_pkey"
	hashConstraint = "short_links_url_hash_active_idx"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	return p.getOne(ctx, sq.Eq{"code": string(code)})
}

func (p *PostgresStore) GetByHash(ctx context.Context, hash shortener.URLHash) (*shortener.ShortLink, error) {
	return p.getOne(ctx, sq.And{sq.Eq{"url_hash": string(hash)}, sq.Eq{"active": true}})
}

func (p *PostgresStore) getOne(ctx context.Context, pred any) (*shortener.ShortLink, error) {
	query, args, err := p.builder.
		Select("code", "destination_url", "url_hash", "created_at", "active", "click_count").
		From("short_links").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building link query: %w", err)
	}

	var link shortener.ShortLink

	var urlHash *string

	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&link.Code,
		&link.DestinationURL,
		&urlHash,
		&link.CreatedAt,
		&link.Active,
		&link.ClickCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	if urlHash != nil {
		link.URLHash = shortener.URLHash(*urlHash)
	}

	return &link, nil
}

func (p *PostgresStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_links WHERE code = $1)`,
		string(code),
	).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.ShortLink) error {
	query := `
		INSERT INTO short_links (code, destination_url, url_hash, created_at, active, click_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		string(link.Code),
		link.DestinationURL,
		nullableHash(link.URLHash),
		link.CreatedAt,
		link.Active,
		link.ClickCount,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case hashConstraint:
				return shortener.ErrDuplicateURL
			case codeConstraint:
				return shortener.ErrConflict
			default:
				return shortener.ErrConflict
			}
		}

		return err
	}

	return nil
}

func (p *PostgresStore) Deactivate(ctx context.Context, code shortener.Code) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE short_links SET active = FALSE WHERE code = $1`,
		string(code),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) List(ctx context.Context, filter shortener.ListFilter) ([]*shortener.ShortLink, error) {
	q := p.builder.
		Select("code", "destination_url", "url_hash", "created_at", "active", "click_count").
		From("short_links")

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where(sq.Or{sq.ILike{"code": like}, sq.ILike{"destination_url": like}})
	}

	if filter.From != nil {
		q = q.Where(sq.GtOrEq{"created_at": *filter.From})
	}

	if filter.To != nil {
		q = q.Where(sq.LtOrEq{"created_at": *filter.To})
	}

	q = q.OrderBy(orderClause(filter.Sort))

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*shortener.ShortLink

	for rows.Next() {
		var link shortener.ShortLink

		var urlHash *string

		err = rows.Scan(
			&link.Code,
			&link.DestinationURL,
			&urlHash,
			&link.CreatedAt,
			&link.Active,
			&link.ClickCount,
		)
		if err != nil {
			return nil, err
		}

		if urlHash != nil {
			link.URLHash = shortener.URLHash(*urlHash)
		}

		links = append(links, &link)
	}

	return links, rows.Err()
}

func (p *PostgresStore) IncrementClicks(ctx context.Context, code shortener.Code) error {
	// Zero rows affected means the link is gone; click events are weak
	// references so that is not an error.
	_, err := p.pool.Exec(ctx,
		`UPDATE short_links SET click_count = click_count + 1 WHERE code = $1`,
		string(code),
	)

	return err
}

func orderClause(key shortener.SortKey) string {
	switch key {
	case shortener.SortCreatedAsc:
		return "created_at ASC"
	case shortener.SortClicksDesc:
		return "click_count DESC"
	case shortener.SortClicksAsc:
		return "click_count ASC"
	case shortener.SortCreatedDesc:
		return "created_at DESC"
	default:
		return "created_at DESC"
	}
}

func nullableHash(h shortener.URLHash) *string {
	if h == "" {
		return nil
	}

	s := string(h)

	return &s
}

var _ shortener.Repository = (*PostgresStore)(nil)
