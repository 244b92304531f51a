package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// ProtocolStore implements domain.ProtocolStore using PostgreSQL. The
// protocol is a singleton row pinned to id = 1 by a CHECK constraint.
type ProtocolStore struct {
	pool *pgxpool.Pool
}

// NewProtocolStore creates a new ProtocolStore backed by the given pool.
func NewProtocolStore(pool *pgxpool.Pool) *ProtocolStore {
	return &ProtocolStore{pool: pool}
}

var _ domain.ProtocolStore = (*ProtocolStore)(nil)

// Create inserts the protocol singleton. It returns domain.ErrAlreadyExists
// if the protocol was already initialized.
func (s *ProtocolStore) Create(ctx context.Context, p domain.Protocol) error {
	const query = `
		INSERT INTO protocol (id, authority, oracle, treasury, fee_bps, swap_cap, market_count)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	tag, err := q(ctx, s.pool).Exec(ctx, query,
		p.Authority, p.Oracle, p.Treasury, int32(p.FeeBps), p.SwapCap, p.MarketCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: create protocol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get returns the protocol singleton, or domain.ErrNotFound if it has not
// been initialized yet.
func (s *ProtocolStore) Get(ctx context.Context) (domain.Protocol, error) {
	const query = `
		SELECT authority, oracle, treasury, fee_bps, swap_cap, market_count
		FROM protocol WHERE id = 1`

	var (
		p      domain.Protocol
		feeBps int32
	)
	err := q(ctx, s.pool).QueryRow(ctx, query).Scan(
		&p.Authority, &p.Oracle, &p.Treasury, &feeBps, &p.SwapCap, &p.MarketCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Protocol{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Protocol{}, fmt.Errorf("postgres: get protocol: %w", err)
	}
	p.FeeBps = uint16(feeBps)
	return p, nil
}

// Update rewrites the protocol singleton.
func (s *ProtocolStore) Update(ctx context.Context, p domain.Protocol) error {
	const query = `
		UPDATE protocol
		SET authority = $1, oracle = $2, treasury = $3, fee_bps = $4,
		    swap_cap = $5, market_count = $6, updated_at = NOW()
		WHERE id = 1`

	tag, err := q(ctx, s.pool).Exec(ctx, query,
		p.Authority, p.Oracle, p.Treasury, int32(p.FeeBps), p.SwapCap, p.MarketCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: update protocol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
