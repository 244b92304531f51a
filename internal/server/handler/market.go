package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// MarketService defines the methods the market handler requires from the
// engine. It is declared locally so the handler package does not depend on
// the concrete engine type.
type MarketService interface {
	CreateMarket(ctx context.Context, caller, title, description string, deadline time.Time) (domain.Market, error)
	GetMarket(ctx context.Context, id uint64) (domain.Market, error)
	ListMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
	CountMarkets(ctx context.Context) (int64, error)
	Resolve(ctx context.Context, caller string, marketID uint64, outcome domain.Outcome, confidence uint8) (domain.Market, error)
}

// MarketHandler serves market-related HTTP endpoints. When a cache is
// configured, single-market reads go through it and every market mutation
// invalidates it.
type MarketHandler struct {
	markets MarketService
	cache   domain.MarketCache // may be nil
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service, optional
// cache, and logger.
func NewMarketHandler(markets MarketService, cache domain.MarketCache, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		cache:   cache,
		logger:  logger,
	}
}

type createMarketRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
}

// CreateMarket opens a new market.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-Caller header")
		return
	}

	var req createMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Deadline.IsZero() {
		writeError(w, http.StatusBadRequest, "deadline is required")
		return
	}

	market, err := h.markets.CreateMarket(r.Context(), caller, req.Title, req.Description, req.Deadline)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, market)
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns markets ordered by id with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	markets, err := h.markets.ListMarkets(r.Context(), opts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	total, err := h.markets.CountMarkets(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its id, consulting the cache first.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	if h.cache != nil {
		if market, err := h.cache.Get(r.Context(), id); err == nil {
			writeJSON(w, http.StatusOK, market)
			return
		} else if !errors.Is(err, domain.ErrNotFound) {
			h.logger.WarnContext(r.Context(), "handler: market cache read failed",
				slog.Uint64("market_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	market, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), market); err != nil {
			h.logger.WarnContext(r.Context(), "handler: market cache write failed",
				slog.Uint64("market_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	writeJSON(w, http.StatusOK, market)
}

type resolveRequest struct {
	Outcome    domain.Outcome `json:"outcome"`
	Confidence uint8          `json:"confidence"`
}

// Resolve declares a market's outcome as the oracle.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) Resolve(w http.ResponseWriter, r *http.Request) {
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

	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Outcome.ValidOutcome() {
		writeError(w, http.StatusBadRequest, "outcome must be yes, no, or invalid")
		return
	}

	market, err := h.markets.Resolve(r.Context(), caller, id, req.Outcome, req.Confidence)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	h.invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, market)
}

func (h *MarketHandler) invalidate(ctx context.Context, id uint64) {
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
