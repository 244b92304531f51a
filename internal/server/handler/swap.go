package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// SwapService defines the methods the swap handler requires from the engine.
type SwapService interface {
	SwapToSBYL(ctx context.Context, caller string, solAmount uint64) error
}

// SwapHandler serves the SOL-to-SBYL swap endpoint.
type SwapHandler struct {
	swaps  SwapService
	logger *slog.Logger
}

// NewSwapHandler creates a SwapHandler with the given service and logger.
func NewSwapHandler(swaps SwapService, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{
		swaps:  swaps,
		logger: logger,
	}
}

type swapRequest struct {
	Amount uint64 `json:"amount"`
}

type swapResponse struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

// Swap converts the caller's SOL into SBYL at 1:1.
// POST /api/swap
func (h *SwapHandler) Swap(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-Caller header")
		return
	}

	var req swapRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.swaps.SwapToSBYL(r.Context(), caller, req.Amount); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, swapResponse{Caller: caller, Amount: req.Amount})
}
