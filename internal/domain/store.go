package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// Tx runs fn inside one atomic transaction. Store and ledger calls made with
// the context passed to fn join that transaction; if fn returns an error every
// mutation is rolled back. This is what makes each boundary operation
// all-or-nothing.
type Tx interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProtocolStore persists the protocol singleton.
type ProtocolStore interface {
	// Create fails with ErrAlreadyExists if the singleton was already
	// initialized. Initialize-once is enforced here, not in the engine.
	Create(ctx context.Context, p Protocol) error
	Get(ctx context.Context) (Protocol, error)
	Update(ctx context.Context, p Protocol) error
}

// MarketStore persists markets keyed by their counter-assigned id.
type MarketStore interface {
	// Create fails with ErrAlreadyExists if a market with the same id exists.
	Create(ctx context.Context, m Market) error
	Get(ctx context.Context, id uint64) (Market, error)
	Update(ctx context.Context, m Market) error
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// PositionStore persists positions at their deterministic
// (market, owner, side) address.
type PositionStore interface {
	// Create fails with ErrAlreadyExists if a position already occupies the
	// (market, owner, side) address.
	Create(ctx context.Context, p Position) error
	Get(ctx context.Context, marketID uint64, owner string, side Outcome) (Position, error)
	Update(ctx context.Context, p Position) error
	ListByOwner(ctx context.Context, owner string, opts ListOpts) ([]Position, error)
	ListByMarket(ctx context.Context, marketID uint64, opts ListOpts) ([]Position, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log of boundary operations.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	ListBefore(ctx context.Context, before time.Time) ([]AuditEntry, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
