package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sibyl-protocol/sibyl/internal/domain"
	"github.com/sibyl-protocol/sibyl/internal/engine"
)

// ProtocolService defines the methods the protocol handler requires from the
// engine. It is declared locally so the handler package does not depend on
// the concrete engine type.
type ProtocolService interface {
	Initialize(ctx context.Context, params engine.InitializeParams) (domain.Protocol, error)
	GetProtocol(ctx context.Context) (domain.Protocol, error)
}

// ProtocolHandler serves the protocol singleton endpoints.
type ProtocolHandler struct {
	protocol ProtocolService
	logger   *slog.Logger
}

// NewProtocolHandler creates a ProtocolHandler with the given service and
// logger.
func NewProtocolHandler(protocol ProtocolService, logger *slog.Logger) *ProtocolHandler {
	return &ProtocolHandler{
		protocol: protocol,
		logger:   logger,
	}
}

type initializeRequest struct {
	Oracle   string `json:"oracle"`
	Treasury string `json:"treasury"`
	FeeBps   uint16 `json:"fee_bps"`
	SwapCap  uint64 `json:"swap_cap"`
}

// Initialize creates the protocol singleton. The caller becomes the
// authority.
// POST /api/protocol
func (h *ProtocolHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-Caller header")
		return
	}

	var req initializeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Oracle == "" || req.Treasury == "" {
		writeError(w, http.StatusBadRequest, "oracle and treasury are required")
		return
	}

	p, err := h.protocol.Initialize(r.Context(), engine.InitializeParams{
		Caller:   caller,
		Oracle:   req.Oracle,
		Treasury: req.Treasury,
		FeeBps:   req.FeeBps,
		SwapCap:  req.SwapCap,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// GetProtocol returns the protocol configuration.
// GET /api/protocol
func (h *ProtocolHandler) GetProtocol(w http.ResponseWriter, r *http.Request) {
	p, err := h.protocol.GetProtocol(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
