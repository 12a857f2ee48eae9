package api

import (
	"database/sql"
	"net/http"

	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/replenish"
	"github.com/squaremart/stockd/internal/store"
)

// OrdersHandler handles purchase order endpoints.
type OrdersHandler struct {
	DB     *sql.DB
	Engine *replenish.Engine
}

type createOrderRequest struct {
	SupplierID   int64                     `json:"supplier_id"`
	LeadTimeDays int                       `json:"lead_time_days"`
	Items        []model.PurchaseOrderItem `json:"items"`
}

// List handles GET /api/orders with optional status and origin filters.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	origin := r.URL.Query().Get("origin")

	orders, err := store.ListOrders(r.Context(), h.DB, status, origin)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.PurchaseOrder{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Create handles POST /api/orders (manually entered orders).
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	supplier, err := store.GetSupplier(r.Context(), h.DB, req.SupplierID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to check supplier")
		return
	}
	if supplier == nil {
		jsonError(w, http.StatusBadRequest, "unknown supplier")
		return
	}

	leadDays := req.LeadTimeDays
	if leadDays <= 0 {
		leadDays = 7
	}

	order, err := store.CreateManualOrder(r.Context(), h.DB, replenish.NewOrderNumber(),
		req.SupplierID, req.Items, leadDays)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, order)
}

// Get handles GET /api/orders/{number}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOrderByNumber(r.Context(), h.DB, r.PathValue("number"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// Fulfil handles POST /api/orders/{number}/fulfil.
func (h *OrdersHandler) Fulfil(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, model.OrderStatusFulfilled)
}

// Cancel handles POST /api/orders/{number}/cancel.
func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, model.OrderStatusCancelled)
}

func (h *OrdersHandler) close(w http.ResponseWriter, r *http.Request, status string) {
	closed, err := store.CloseOrder(r.Context(), h.DB, r.PathValue("number"), status)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to close order")
		return
	}
	if !closed {
		jsonError(w, http.StatusConflict, "order not found or not pending")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "order " + status})
}

// Sweep handles POST /api/replenishment/sweep: a manual run of the
// reconciliation pass. Idempotent; safe to call repeatedly.
func (h *OrdersHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.CheckAllLowStock(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	if result.Generated == nil {
		result.Generated = []model.PurchaseOrder{}
	}
	if result.Skipped == nil {
		result.Skipped = []replenish.SkippedProduct{}
	}
	jsonResponse(w, http.StatusOK, result)
}
