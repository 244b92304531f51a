package domain

// Outcome is a market outcome declaration. Yes and No double as bet sides;
// Invalid is only ever a resolution outcome, never a position side.
type Outcome string

const (
	OutcomeYes     Outcome = "yes"
	OutcomeNo      Outcome = "no"
	OutcomeInvalid Outcome = "invalid"
)

// ValidSide reports whether o is a side a position may hold.
func (o Outcome) ValidSide() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// ValidOutcome reports whether o is a declarable resolution outcome.
func (o Outcome) ValidOutcome() bool {
	return o == OutcomeYes || o == OutcomeNo || o == OutcomeInvalid
}

// MarketStatus tracks where a market is in its lifecycle.
type MarketStatus string

const (
	StatusOpen     MarketStatus = "open"
	StatusLocked   MarketStatus = "locked"
	StatusResolved MarketStatus = "resolved"

	// StatusSettled is reserved for a future terminal state entered once every
	// winning position has been claimed and the market vault is drained.
	// Nothing transitions into it today.
	StatusSettled MarketStatus = "settled"
)
