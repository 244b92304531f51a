package domain

import "time"

// Position is one bettor's accumulated stake on one side of one market. It is
// addressed by the (market, owner, side) triple, so a bettor holds at most one
// position per side and may hold Yes and No exposure in the same market
// without them merging.
type Position struct {
	MarketID  uint64
	Owner     string
	Side      Outcome // OutcomeYes or OutcomeNo, fixed at creation
	Amount    uint64  // accumulates across repeated bets on the same side
	Claimed   bool    // one-way false -> true
	CreatedAt time.Time
	UpdatedAt time.Time
}
