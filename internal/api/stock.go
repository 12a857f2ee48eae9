package api

import (
	"errors"
	"net/http"

	"github.com/squaremart/stockd/internal/inventory"
	"github.com/squaremart/stockd/internal/model"
)

// StockHandler handles stock mutation endpoints. All writes go through the
// inventory service; balances are never writable directly.
type StockHandler struct {
	Svc *inventory.Service
}

type stockRequest struct {
	ItemCode     string `json:"item_code"`
	Quantity     int64  `json:"quantity"`
	Delta        int64  `json:"delta"` // adjust only
	Actor        string `json:"actor"`
	Counterparty string `json:"counterparty"`
	Notes        string `json:"notes"`
}

type mutationResponse struct {
	Entry   *model.LedgerEntry `json:"entry"`
	Balance int64              `json:"balance"`
}

// In handles POST /api/stock/in.
func (h *StockHandler) In(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, balance, err := h.Svc.StockIn(r.Context(), req.ItemCode, req.Quantity,
		actor(r, req.Actor), req.Notes, idempotencyKey(r))
	if err != nil {
		writeMutationError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, mutationResponse{Entry: entry, Balance: balance})
}

// Out handles POST /api/stock/out.
func (h *StockHandler) Out(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, balance, err := h.Svc.StockOut(r.Context(), req.ItemCode, req.Quantity,
		actor(r, req.Actor), req.Counterparty, req.Notes, idempotencyKey(r))
	if err != nil {
		writeMutationError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, mutationResponse{Entry: entry, Balance: balance})
}

// Adjust handles POST /api/stock/adjust.
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, balance, err := h.Svc.Adjust(r.Context(), req.ItemCode, req.Delta,
		actor(r, req.Actor), req.Notes, idempotencyKey(r))
	if err != nil {
		writeMutationError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, mutationResponse{Entry: entry, Balance: balance})
}

// Receive handles POST /api/stock/receive (delivery against a supplier).
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, balance, err := h.Svc.ReceiveSupply(r.Context(), req.ItemCode, req.Quantity,
		actor(r, req.Actor), req.Counterparty, req.Notes, idempotencyKey(r))
	if err != nil {
		writeMutationError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, mutationResponse{Entry: entry, Balance: balance})
}

// writeMutationError maps the inventory error taxonomy to status codes.
// Validation errors are 400/404, conflicts 409, and anything else 500 with a
// message that tells the caller the outcome is unknown (so they re-query by
// idempotency key instead of blindly retrying).
func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrProductNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrInvalidDelta):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, "mutation outcome unknown, re-query before retrying")
	}
}

// actor prefers the explicit request field, falling back to the API client.
func actor(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.ClientID
	}
	return ""
}

func idempotencyKey(r *http.Request) string {
	return r.Header.Get("Idempotency-Key")
}
