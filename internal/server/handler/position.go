package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sibyl-protocol/sibyl/internal/domain"
	"github.com/sibyl-protocol/sibyl/internal/engine"
)

// PositionService defines the methods the position handler requires from the
// engine.
type PositionService interface {
	PlaceBet(ctx context.Context, caller string, marketID uint64, side domain.Outcome, amount uint64) (domain.Position, error)
	Claim(ctx context.Context, caller string, marketID uint64, owner string, side domain.Outcome, treasury string) (engine.ClaimReceipt, error)
	ListPositions(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Position, error)
}

// PositionHandler serves bet, claim, and position listing endpoints.
type PositionHandler struct {
	positions PositionService
	cache     domain.MarketCache // may be nil
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler with the given service,
// optional market cache, and logger.
func NewPositionHandler(positions PositionService, cache domain.MarketCache, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{
		positions: positions,
		cache:     cache,
		logger:    logger,
	}
}

type placeBetRequest struct {
	Side   domain.Outcome `json:"side"`
	Amount uint64         `json:"amount"`
}

// PlaceBet stakes SBYL on one side of an open market.
// POST /api/markets/{id}/bets
func (h *PositionHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-Caller header")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req placeBetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	position, err := h.positions.PlaceBet(r.Context(), caller, id, req.Side, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	// The bet changed the pools; drop any cached copy of the market.
	h.invalidate(r.Context(), id)
	writeJSON(w, http.StatusCreated, position)
}

type claimRequest struct {
	Owner    string         `json:"owner"` // defaults to the caller
	Side     domain.Outcome `json:"side"`
	Treasury string         `json:"treasury"`
}

// Claim settles one position of a resolved market.
// POST /api/markets/{id}/claims
func (h *PositionHandler) Claim(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-Caller header")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Treasury == "" {
		writeError(w, http.StatusBadRequest, "treasury is required")
		return
	}

	receipt, err := h.positions.Claim(r.Context(), caller, id, req.Owner, req.Side, req.Treasury)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// listPositionsResponse wraps the list endpoint output with metadata.
type listPositionsResponse struct {
	Positions []domain.Position `json:"positions"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// ListPositions returns an owner's positions across all markets.
// GET /api/positions?owner=...&limit=50&offset=0
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = callerID(r)
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	opts := parseListOpts(r)
	positions, err := h.positions.ListPositions(r.Context(), owner, opts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listPositionsResponse{
		Positions: positions,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	})
}

func (h *PositionHandler) invalidate(ctx context.Context, id uint64) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "handler: market cache invalidate failed",
			slog.Uint64("market_id", id),
			slog.String("error", err.Error()),
		)
	}
}
