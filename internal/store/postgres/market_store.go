package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

var _ domain.MarketStore = (*MarketStore)(nil)

const marketColumns = `id, creator, title, description, deadline, yes_pool,
	no_pool, status, outcome, confidence, created_at, resolved_at`

// Create inserts a new market. It returns domain.ErrAlreadyExists if a market
// with the same id is already stored.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (id, creator, title, description, deadline,
			yes_pool, no_pool, status, outcome, confidence, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q(ctx, s.pool).Exec(ctx, query,
		m.ID, m.Creator, m.Title, m.Description, m.Deadline,
		m.YesPool, m.NoPool, string(m.Status), outcomeArg(m.Outcome),
		int16(m.Confidence), m.CreatedAt, m.ResolvedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("postgres: create market %d: %w", m.ID, err)
	}
	return nil
}

// Get returns the market with the given id, or domain.ErrNotFound.
func (s *MarketStore) Get(ctx context.Context, id uint64) (domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`

	m, err := scanMarket(q(ctx, s.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Market{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return m, nil
}

// Update rewrites the stored market.
func (s *MarketStore) Update(ctx context.Context, m domain.Market) error {
	const query = `
		UPDATE markets
		SET creator = $2, title = $3, description = $4, deadline = $5,
		    yes_pool = $6, no_pool = $7, status = $8, outcome = $9,
		    confidence = $10, resolved_at = $11
		WHERE id = $1`

	tag, err := q(ctx, s.pool).Exec(ctx, query,
		m.ID, m.Creator, m.Title, m.Description, m.Deadline,
		m.YesPool, m.NoPool, string(m.Status), outcomeArg(m.Outcome),
		int16(m.Confidence), m.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update market %d: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns markets ordered by id with pagination.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets ORDER BY id`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := q(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the total number of stored markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := q(ctx, s.pool).QueryRow(ctx, `SELECT COUNT(*) FROM markets`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m          domain.Market
		status     string
		outcome    *string
		confidence int16
	)
	err := row.Scan(
		&m.ID, &m.Creator, &m.Title, &m.Description, &m.Deadline,
		&m.YesPool, &m.NoPool, &status, &outcome, &confidence,
		&m.CreatedAt, &m.ResolvedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Status = domain.MarketStatus(status)
	m.Confidence = uint8(confidence)
	if outcome != nil {
		o := domain.Outcome(*outcome)
		m.Outcome = &o
	}
	return m, nil
}

// outcomeArg converts an optional outcome to a nullable query argument.
func outcomeArg(o *domain.Outcome) *string {
	if o == nil {
		return nil
	}
	s := string(*o)
	return &s
}
