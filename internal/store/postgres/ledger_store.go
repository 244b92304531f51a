package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// LedgerStore implements domain.TokenLedger using PostgreSQL. Balances live
// in a single table keyed by (asset, account); a CHECK constraint keeps them
// non-negative so an overdraft can never be committed.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a new LedgerStore backed by the given pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

var _ domain.TokenLedger = (*LedgerStore)(nil)

// Transfer moves amount from one account to another. The debit only matches
// rows with sufficient balance, so an underfunded source reports
// domain.ErrInsufficientFunds without touching either account.
func (s *LedgerStore) Transfer(ctx context.Context, asset domain.Asset, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	db := q(ctx, s.pool)

	const debit = `
		UPDATE balances SET balance = balance - $3
		WHERE asset = $1 AND account = $2 AND balance >= $3`
	tag, err := db.Exec(ctx, debit, string(asset), from, amount)
	if err != nil {
		return fmt.Errorf("postgres: debit %s from %s: %w", asset, from, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}

	if err := s.credit(ctx, db, asset, to, amount); err != nil {
		return fmt.Errorf("postgres: credit %s to %s: %w", asset, to, err)
	}
	return nil
}

// Mint creates amount of asset in the target account. Only the protocol mint
// authority may mint.
func (s *LedgerStore) Mint(ctx context.Context, asset domain.Asset, to string, amount uint64, authority string) error {
	if authority != domain.MintAuthority {
		return domain.ErrUnauthorized
	}
	if amount == 0 {
		return nil
	}
	if err := s.credit(ctx, q(ctx, s.pool), asset, to, amount); err != nil {
		return fmt.Errorf("postgres: mint %s to %s: %w", asset, to, err)
	}
	return nil
}

// Balance reports an account's balance; absent accounts are zero.
func (s *LedgerStore) Balance(ctx context.Context, asset domain.Asset, account string) (uint64, error) {
	const query = `SELECT balance FROM balances WHERE asset = $1 AND account = $2`

	var balance uint64
	err := q(ctx, s.pool).QueryRow(ctx, query, string(asset), account).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: balance %s/%s: %w", asset, account, err)
	}
	return balance, nil
}

func (s *LedgerStore) credit(ctx context.Context, db querier, asset domain.Asset, account string, amount uint64) error {
	const query = `
		INSERT INTO balances (asset, account, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset, account)
		DO UPDATE SET balance = balances.balance + EXCLUDED.balance`
	_, err := db.Exec(ctx, query, string(asset), account, amount)
	return err
}
