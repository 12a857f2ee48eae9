package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/store"
)

// ProductsHandler handles the product provisioning surface. Balances are not
// writable here; only the catalog fields and the reorder policy are.
type ProductsHandler struct {
	DB *sql.DB
}

type createProductRequest struct {
	ItemCode         string  `json:"item_code"`
	Name             string  `json:"name"`
	ReorderThreshold int64   `json:"reorder_threshold"`
	SupplierID       *int64  `json:"supplier_id"`
	UnitCost         float64 `json:"unit_cost"`
	UnitPrice        float64 `json:"unit_price"`
}

type reorderPolicyRequest struct {
	ReorderThreshold int64  `json:"reorder_threshold"`
	SupplierID       *int64 `json:"supplier_id"`
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := store.ListProducts(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemCode == "" || req.Name == "" {
		jsonError(w, http.StatusBadRequest, "item_code and name are required")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, req.ItemCode, req.Name,
		req.ReorderThreshold, req.SupplierID, req.UnitCost, req.UnitPrice)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, product)
}

// Get handles GET /api/products/{code}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := store.GetProduct(r.Context(), h.DB, r.PathValue("code"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	jsonResponse(w, http.StatusOK, product)
}

// UpdateReorderPolicy handles PUT /api/products/{code}/reorder-policy.
func (h *ProductsHandler) UpdateReorderPolicy(w http.ResponseWriter, r *http.Request) {
	var req reorderPolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	found, err := store.UpdateReorderPolicy(r.Context(), h.DB, r.PathValue("code"),
		req.ReorderThreshold, req.SupplierID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reorder policy updated"})
}

// Ledger handles GET /api/products/{code}/ledger with kind, since, until,
// page and limit query parameters.
func (h *ProductsHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	itemCode := r.PathValue("code")

	product, err := store.GetProduct(r.Context(), h.DB, itemCode)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	filter := model.LedgerFilter{Kind: r.URL.Query().Get("kind")}
	if filter.Kind != "" && !model.ValidKind(filter.Kind) {
		jsonError(w, http.StatusBadRequest, "invalid ledger kind")
		return
	}

	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		filter.Since = t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "until must be RFC 3339")
			return
		}
		filter.Until = t
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := store.ListLedger(r.Context(), h.DB, itemCode, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list ledger")
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// VerifyEntry handles POST /api/ledger/{id}/verify.
func (h *ProductsHandler) VerifyEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid ledger entry id")
		return
	}

	var req struct {
		Verified bool `json:"verified"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	found, err := store.SetVerified(r.Context(), h.DB, id, req.Verified)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "ledger entry not found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "ledger entry updated"})
}
