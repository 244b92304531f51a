package domain

import "errors"

// Storage and infrastructure errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLockHeld      = errors.New("lock already held")
)

// Configuration and input validation errors.
var (
	ErrInvalidFeeBps      = errors.New("fee basis points must be <= 10000")
	ErrZeroAmount         = errors.New("amount must be greater than zero")
	ErrTitleTooLong       = errors.New("title exceeds maximum length")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrDeadlineInPast     = errors.New("resolution deadline must be in the future")
)

// Betting errors.
var (
	ErrMarketNotOpen  = errors.New("market is not open for betting")
	ErrMarketExpired  = errors.New("market has expired")
	ErrInvalidBetSide = errors.New("cannot bet invalid as a side")
	ErrSideMismatch   = errors.New("position side does not match")
)

// Resolution errors.
var (
	ErrInvalidConfidence   = errors.New("confidence must be 0-100")
	ErrMarketNotResolvable = errors.New("market cannot be resolved in current state")
	ErrDeadlineNotReached  = errors.New("resolution deadline has not been reached")
)

// Claim errors.
var (
	ErrMarketNotResolved = errors.New("market is not yet resolved")
	ErrAlreadyClaimed    = errors.New("position already claimed")
	ErrNotWinner         = errors.New("not on the winning side")
	ErrNoPayout          = errors.New("no payout available")
	ErrNotPositionOwner  = errors.New("not the position owner")
	ErrTreasuryMismatch  = errors.New("treasury account does not match protocol treasury")
)

// Identity, swap, and arithmetic errors.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSwapCapExceeded   = errors.New("swap amount exceeds per-call cap")
	ErrAmountOverflow    = errors.New("amount overflow")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
