package api

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/squaremart/stockd/internal/auth"
	"github.com/squaremart/stockd/internal/inventory"
	"github.com/squaremart/stockd/internal/replenish"
)

// Deps carries the constructed components the router wires together. The
// repository handle and services are injected; nothing here owns lifecycle.
type Deps struct {
	DB         *sql.DB
	Inventory  *inventory.Service
	Engine     *replenish.Engine
	JWTSecret  string
	Clients    []auth.Client
	WindowDays int
	Metrics    bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Clients: d.Clients, JWTSecret: d.JWTSecret}
	stockHandler := &StockHandler{Svc: d.Inventory}
	productsHandler := &ProductsHandler{DB: d.DB}
	ordersHandler := &OrdersHandler{DB: d.DB, Engine: d.Engine}
	dashboardHandler := &DashboardHandler{DB: d.DB, WindowDays: d.WindowDays}
	suppliersHandler := &SuppliersHandler{DB: d.DB}

	authMW := AuthMiddleware(d.JWTSecret)

	// Public.
	mux.HandleFunc("POST /api/auth/token", authHandler.Token)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if d.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Stock mutations.
	mux.Handle("POST /api/stock/in", authMW(http.HandlerFunc(stockHandler.In)))
	mux.Handle("POST /api/stock/out", authMW(http.HandlerFunc(stockHandler.Out)))
	mux.Handle("POST /api/stock/adjust", authMW(http.HandlerFunc(stockHandler.Adjust)))
	mux.Handle("POST /api/stock/receive", authMW(http.HandlerFunc(stockHandler.Receive)))

	// Products and their ledgers.
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(productsHandler.List)))
	mux.Handle("POST /api/products", authMW(http.HandlerFunc(productsHandler.Create)))
	mux.Handle("GET /api/products/{code}", authMW(http.HandlerFunc(productsHandler.Get)))
	mux.Handle("PUT /api/products/{code}/reorder-policy", authMW(http.HandlerFunc(productsHandler.UpdateReorderPolicy)))
	mux.Handle("GET /api/products/{code}/ledger", authMW(http.HandlerFunc(productsHandler.Ledger)))
	mux.Handle("POST /api/ledger/{id}/verify", authMW(http.HandlerFunc(productsHandler.VerifyEntry)))

	// Purchase orders and replenishment.
	mux.Handle("GET /api/orders", authMW(http.HandlerFunc(ordersHandler.List)))
	mux.Handle("POST /api/orders", authMW(http.HandlerFunc(ordersHandler.Create)))
	mux.Handle("GET /api/orders/{number}", authMW(http.HandlerFunc(ordersHandler.Get)))
	mux.Handle("POST /api/orders/{number}/fulfil", authMW(http.HandlerFunc(ordersHandler.Fulfil)))
	mux.Handle("POST /api/orders/{number}/cancel", authMW(http.HandlerFunc(ordersHandler.Cancel)))
	mux.Handle("POST /api/replenishment/sweep", authMW(http.HandlerFunc(ordersHandler.Sweep)))

	// Suppliers.
	mux.Handle("GET /api/suppliers", authMW(http.HandlerFunc(suppliersHandler.List)))
	mux.Handle("POST /api/suppliers", authMW(http.HandlerFunc(suppliersHandler.Create)))

	// Dashboard.
	mux.Handle("GET /api/dashboard/summary", authMW(http.HandlerFunc(dashboardHandler.Summary)))
	mux.Handle("GET /api/dashboard/activity", authMW(http.HandlerFunc(dashboardHandler.Activity)))
	mux.Handle("GET /api/dashboard/best-sellers", authMW(http.HandlerFunc(dashboardHandler.BestSellers)))
	mux.Handle("GET /api/dashboard/low-stock", authMW(http.HandlerFunc(dashboardHandler.LowStock)))

	return mux
}
