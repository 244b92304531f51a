// Package memory implements the domain store, ledger, and lock interfaces
// with in-process maps. It backs the "memory" storage mode and the engine
// tests; transactions are emulated by snapshotting state and restoring it
// when the transaction function fails.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// Store holds all entity state in memory. It implements domain.Tx,
// domain.ProtocolStore, domain.MarketStore, domain.PositionStore,
// domain.AuditStore, and domain.TokenLedger.
type Store struct {
	txMu sync.Mutex // serializes transactions
	mu   sync.Mutex // guards all maps below

	protocol  *domain.Protocol
	markets   map[uint64]domain.Market
	positions map[string]domain.Position
	balances  map[string]uint64
	audit     []domain.AuditEntry
	auditSeq  int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		markets:   make(map[uint64]domain.Market),
		positions: make(map[string]domain.Position),
		balances:  make(map[string]uint64),
	}
}

func positionKey(marketID uint64, owner string, side domain.Outcome) string {
	return fmt.Sprintf("%d|%s|%s", marketID, owner, side)
}

func balanceKey(asset domain.Asset, account string) string {
	return string(asset) + "|" + account
}

// ---------------------------------------------------------------------------
// Tx
// ---------------------------------------------------------------------------

// InTx runs fn as one all-or-nothing unit. State is snapshotted up front and
// restored wholesale if fn returns an error, so a failing operation leaves no
// partial mutation behind. Transactions are fully serialized.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapProtocol := s.protocol
	if s.protocol != nil {
		p := *s.protocol
		snapProtocol = &p
	}
	snapMarkets := maps.Clone(s.markets)
	snapPositions := maps.Clone(s.positions)
	snapBalances := maps.Clone(s.balances)
	snapAudit := slices.Clone(s.audit)
	snapSeq := s.auditSeq
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.protocol = snapProtocol
		s.markets = snapMarkets
		s.positions = snapPositions
		s.balances = snapBalances
		s.audit = snapAudit
		s.auditSeq = snapSeq
		s.mu.Unlock()
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// ProtocolStore
// ---------------------------------------------------------------------------

func (s *Store) Create(ctx context.Context, p domain.Protocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.protocol != nil {
		return domain.ErrAlreadyExists
	}
	s.protocol = &p
	return nil
}

func (s *Store) Get(ctx context.Context) (domain.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.protocol == nil {
		return domain.Protocol{}, domain.ErrNotFound
	}
	return *s.protocol, nil
}

func (s *Store) Update(ctx context.Context, p domain.Protocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.protocol == nil {
		return domain.ErrNotFound
	}
	s.protocol = &p
	return nil
}

// ---------------------------------------------------------------------------
// MarketStore
// ---------------------------------------------------------------------------

// Markets returns a MarketStore view of the store.
func (s *Store) Markets() domain.MarketStore { return (*marketStore)(s) }

type marketStore Store

func (m *marketStore) Create(ctx context.Context, mk domain.Market) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markets[mk.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.markets[mk.ID] = mk
	return nil
}

func (m *marketStore) Get(ctx context.Context, id uint64) (domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return mk, nil
}

func (m *marketStore) Update(ctx context.Context, mk domain.Market) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markets[mk.ID]; !ok {
		return domain.ErrNotFound
	}
	m.markets[mk.ID] = mk
	return nil
}

func (m *marketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Market, 0, len(m.markets))
	for _, mk := range m.markets {
		out = append(out, mk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

func (m *marketStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.markets)), nil
}

// ---------------------------------------------------------------------------
// PositionStore
// ---------------------------------------------------------------------------

// Positions returns a PositionStore view of the store.
func (s *Store) Positions() domain.PositionStore { return (*positionStore)(s) }

type positionStore Store

func (p *positionStore) Create(ctx context.Context, pos domain.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := positionKey(pos.MarketID, pos.Owner, pos.Side)
	if _, ok := p.positions[key]; ok {
		return domain.ErrAlreadyExists
	}
	p.positions[key] = pos
	return nil
}

func (p *positionStore) Get(ctx context.Context, marketID uint64, owner string, side domain.Outcome) (domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[positionKey(marketID, owner, side)]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return pos, nil
}

func (p *positionStore) Update(ctx context.Context, pos domain.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := positionKey(pos.MarketID, pos.Owner, pos.Side)
	if _, ok := p.positions[key]; !ok {
		return domain.ErrNotFound
	}
	p.positions[key] = pos
	return nil
}

func (p *positionStore) ListByOwner(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Position
	for _, pos := range p.positions {
		if pos.Owner == owner {
			out = append(out, pos)
		}
	}
	sortPositions(out)
	return paginate(out, opts), nil
}

func (p *positionStore) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Position
	for _, pos := range p.positions {
		if pos.MarketID == marketID {
			out = append(out, pos)
		}
	}
	sortPositions(out)
	return paginate(out, opts), nil
}

func sortPositions(positions []domain.Position) {
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.MarketID != b.MarketID {
			return a.MarketID < b.MarketID
		}
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.Side < b.Side
	})
}

// ---------------------------------------------------------------------------
// TokenLedger
// ---------------------------------------------------------------------------

// Ledger returns a TokenLedger view of the store.
func (s *Store) Ledger() domain.TokenLedger { return (*ledger)(s) }

type ledger Store

func (l *ledger) Transfer(ctx context.Context, asset domain.Asset, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromKey := balanceKey(asset, from)
	toKey := balanceKey(asset, to)
	if l.balances[fromKey] < amount {
		return domain.ErrInsufficientFunds
	}
	if l.balances[toKey]+amount < l.balances[toKey] {
		return domain.ErrAmountOverflow
	}
	l.balances[fromKey] -= amount
	l.balances[toKey] += amount
	return nil
}

func (l *ledger) Mint(ctx context.Context, asset domain.Asset, to string, amount uint64, authority string) error {
	if authority != domain.MintAuthority {
		return domain.ErrUnauthorized
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey(asset, to)
	if l.balances[key]+amount < l.balances[key] {
		return domain.ErrAmountOverflow
	}
	l.balances[key] += amount
	return nil
}

func (l *ledger) Balance(ctx context.Context, asset domain.Asset, account string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey(asset, account)], nil
}

// ---------------------------------------------------------------------------
// AuditStore
// ---------------------------------------------------------------------------

// Audit returns an AuditStore view of the store.
func (s *Store) Audit() domain.AuditStore { return (*auditStore)(s) }

type auditStore Store

func (a *auditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.auditSeq++
	a.audit = append(a.audit, domain.AuditEntry{
		ID:        a.auditSeq,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (a *auditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return paginate(slices.Clone(a.audit), opts), nil
}

func (a *auditStore) ListBefore(ctx context.Context, before time.Time) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range a.audit {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *auditStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.audit[:0]
	var deleted int64
	for _, e := range a.audit {
		if e.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	a.audit = kept
	return deleted, nil
}

// paginate applies ListOpts to an already-sorted slice.
func paginate[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return []T{}
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// Compile-time interface checks.
var (
	_ domain.Tx            = (*Store)(nil)
	_ domain.ProtocolStore = (*Store)(nil)
	_ domain.MarketStore   = (*marketStore)(nil)
	_ domain.PositionStore = (*positionStore)(nil)
	_ domain.TokenLedger   = (*ledger)(nil)
	_ domain.AuditStore    = (*auditStore)(nil)
)
