package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL. Positions
// are addressed by their composite (market_id, owner, side) primary key.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

var _ domain.PositionStore = (*PositionStore)(nil)

const positionColumns = `market_id, owner, side, amount, claimed, created_at, updated_at`

// Create inserts a new position. It returns domain.ErrAlreadyExists if a
// position already occupies the (market, owner, side) address.
func (s *PositionStore) Create(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (market_id, owner, side, amount, claimed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q(ctx, s.pool).Exec(ctx, query,
		p.MarketID, p.Owner, string(p.Side), p.Amount, p.Claimed, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("postgres: create position %d/%s/%s: %w", p.MarketID, p.Owner, p.Side, err)
	}
	return nil
}

// Get returns the position at the given address, or domain.ErrNotFound.
func (s *PositionStore) Get(ctx context.Context, marketID uint64, owner string, side domain.Outcome) (domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions
		WHERE market_id = $1 AND owner = $2 AND side = $3`

	p, err := scanPosition(q(ctx, s.pool).QueryRow(ctx, query, marketID, owner, string(side)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Position{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("postgres: get position %d/%s/%s: %w", marketID, owner, side, err)
	}
	return p, nil
}

// Update rewrites the stored position.
func (s *PositionStore) Update(ctx context.Context, p domain.Position) error {
	const query = `
		UPDATE positions
		SET amount = $4, claimed = $5, updated_at = $6
		WHERE market_id = $1 AND owner = $2 AND side = $3`

	tag, err := q(ctx, s.pool).Exec(ctx, query,
		p.MarketID, p.Owner, string(p.Side), p.Amount, p.Claimed, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update position %d/%s/%s: %w", p.MarketID, p.Owner, p.Side, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner returns all positions held by the given owner.
func (s *PositionStore) ListByOwner(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions
		WHERE owner = $1 ORDER BY market_id, side`
	return s.list(ctx, query, owner, opts)
}

// ListByMarket returns all positions in the given market.
func (s *PositionStore) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions
		WHERE market_id = $1 ORDER BY owner, side`
	return s.list(ctx, query, marketID, opts)
}

func (s *PositionStore) list(ctx context.Context, query string, key any, opts domain.ListOpts) ([]domain.Position, error) {
	args := []any{key}
	argIdx := 2

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
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list positions rows: %w", err)
	}
	return positions, nil
}

func scanPosition(row pgx.Row) (domain.Position, error) {
	var (
		p    domain.Position
		side string
	)
	err := row.Scan(&p.MarketID, &p.Owner, &side, &p.Amount, &p.Claimed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Position{}, err
	}
	p.Side = domain.Outcome(side)
	return p, nil
}
