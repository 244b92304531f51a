package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinel errors onto HTTP status codes and
// sends the matching JSON error body. Unknown errors are logged and become a
// generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "handler: request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotPositionOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidFeeBps),
		errors.Is(err, domain.ErrZeroAmount),
		errors.Is(err, domain.ErrTitleTooLong),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrDeadlineInPast),
		errors.Is(err, domain.ErrInvalidBetSide),
		errors.Is(err, domain.ErrInvalidConfidence),
		errors.Is(err, domain.ErrAmountOverflow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMarketNotOpen),
		errors.Is(err, domain.ErrMarketExpired),
		errors.Is(err, domain.ErrMarketNotResolvable),
		errors.Is(err, domain.ErrDeadlineNotReached),
		errors.Is(err, domain.ErrMarketNotResolved),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrNotWinner),
		errors.Is(err, domain.ErrNoPayout),
		errors.Is(err, domain.ErrTreasuryMismatch),
		errors.Is(err, domain.ErrSideMismatch),
		errors.Is(err, domain.ErrSwapCapExceeded),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLockHeld):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// callerID extracts the acting account from the X-Caller header. The server
// trusts its deployment boundary for identity; the API key gate in front of
// it is the actual auth wall.
func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Caller"))
}

// parseListOpts extracts standard pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathID parses the {id} path parameter as a market id.
func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}

// decodeBody decodes a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
