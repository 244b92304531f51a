package domain

import "time"

const (
	// MaxTitleLen bounds a market title.
	MaxTitleLen = 200
	// MaxDescriptionLen bounds a market description.
	MaxDescriptionLen = 1000
)

// Market is a binary prediction market. Pools accumulate staked SBYL per side
// and only ever grow; resolution freezes them and fixes the outcome.
type Market struct {
	ID          uint64
	Creator     string
	Title       string
	Description string
	Deadline    time.Time // bets close and resolution opens at this instant
	YesPool     uint64
	NoPool      uint64
	Status      MarketStatus
	Outcome     *Outcome // nil until resolved
	Confidence  uint8    // oracle confidence 0-100, meaningful once resolved
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// Expired reports whether the betting window has closed at the given time.
func (m Market) Expired(now time.Time) bool {
	return !now.Before(m.Deadline)
}

// Resolvable reports whether the status admits a resolve transition. The
// deadline check is separate; resolve enforces both.
func (m Market) Resolvable() bool {
	return m.Status == StatusOpen || m.Status == StatusLocked
}

// Pool returns the pool total for the given side.
func (m Market) Pool(side Outcome) uint64 {
	if side == OutcomeYes {
		return m.YesPool
	}
	return m.NoPool
}
