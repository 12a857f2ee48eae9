package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/store"
)

// DashboardHandler serves read-only aggregations over the ledger.
type DashboardHandler struct {
	DB         *sql.DB
	WindowDays int
}

// Summary handles GET /api/dashboard/summary.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := store.GetSummary(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get summary")
		return
	}
	jsonResponse(w, http.StatusOK, summary)
}

// Activity handles GET /api/dashboard/activity.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	buckets, err := store.DailyActivity(r.Context(), h.DB, h.window(r))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get activity")
		return
	}
	if buckets == nil {
		buckets = []model.ActivityBucket{}
	}
	jsonResponse(w, http.StatusOK, buckets)
}

// BestSellers handles GET /api/dashboard/best-sellers.
func (h *DashboardHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sellers, err := store.BestSellers(r.Context(), h.DB, h.window(r), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get best sellers")
		return
	}
	if sellers == nil {
		sellers = []model.BestSeller{}
	}
	jsonResponse(w, http.StatusOK, sellers)
}

// LowStock handles GET /api/dashboard/low-stock.
func (h *DashboardHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := store.ListLowStock(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list low-stock products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

func (h *DashboardHandler) window(r *http.Request) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && v > 0 {
		return v
	}
	if h.WindowDays > 0 {
		return h.WindowDays
	}
	return 30
}
