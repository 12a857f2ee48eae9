package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/squaremart/stockd/internal/auth"
	"github.com/squaremart/stockd/internal/db"
	"github.com/squaremart/stockd/internal/inventory"
	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/replenish"
	"github.com/squaremart/stockd/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := replenish.NewEngine(database, &replenish.StoreDirectory{DB: database}, nil, replenish.Config{}, log)
	svc := inventory.New(database, nil, engine, log)

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	router := NewRouter(Deps{
		DB:        database,
		Inventory: svc,
		Engine:    engine,
		JWTSecret: testJWTSecret,
		Clients:   []auth.Client{{ID: "till-1", SecretHash: string(hash)}},
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Get token.
	body, _ := json.Marshal(map[string]string{"client_id": "till-1", "client_secret": "s3cret"})
	resp, err := http.Post(server.URL+"/api/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("token request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token request failed: %d", resp.StatusCode)
	}

	var tokenResp map[string]string
	json.NewDecoder(resp.Body).Decode(&tokenResp)
	token := tokenResp["token"]
	if token == "" {
		t.Fatal("empty token")
	}

	return server, token, database
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

func TestTokenEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// Wrong secret.
	body, _ := json.Marshal(map[string]string{"client_id": "till-1", "client_secret": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/token", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad secret, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown client.
	body, _ = json.Marshal(map[string]string{"client_id": "nope", "client_secret": "s3cret"})
	resp, _ = http.Post(server.URL+"/api/auth/token", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown client, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthorizedRequests(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/products")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with invalid token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Health stays public.
	resp, _ = http.Get(server.URL + "/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for health, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProductEndpoints(t *testing.T) {
	server, token, _ := setupTestServer(t)

	var created model.Product
	resp := doJSON(t, http.MethodPost, server.URL+"/api/products", token, map[string]any{
		"item_code":         "SKU-1",
		"name":              "Widget",
		"reorder_threshold": 10,
		"unit_cost":         2.5,
		"unit_price":        4.99,
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: %d", resp.StatusCode)
	}
	if created.ItemCode != "SKU-1" || created.OnHand != 0 {
		t.Errorf("unexpected product: %+v", created)
	}

	// Missing required fields.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/products", token, map[string]any{"name": "No code"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without item_code, got %d", resp.StatusCode)
	}

	var fetched model.Product
	resp = doJSON(t, http.MethodGet, server.URL+"/api/products/SKU-1", token, nil, &fetched)
	if resp.StatusCode != http.StatusOK || fetched.ID != created.ID {
		t.Errorf("get product: %d, %+v", resp.StatusCode, fetched)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/products/NOPE", token, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown product, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, server.URL+"/api/products/SKU-1/reorder-policy", token,
		map[string]any{"reorder_threshold": 25}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("update reorder policy: %d", resp.StatusCode)
	}
	doJSON(t, http.MethodGet, server.URL+"/api/products/SKU-1", token, nil, &fetched)
	if fetched.ReorderThreshold != 25 {
		t.Errorf("expected threshold 25, got %d", fetched.ReorderThreshold)
	}
}

func TestStockMutationFlow(t *testing.T) {
	server, token, _ := setupTestServer(t)

	doJSON(t, http.MethodPost, server.URL+"/api/products", token, map[string]any{
		"item_code": "SKU-1", "name": "Widget",
	}, nil)

	var mut struct {
		Entry   model.LedgerEntry `json:"entry"`
		Balance int64             `json:"balance"`
	}
	resp := doJSON(t, http.MethodPost, server.URL+"/api/stock/in", token, map[string]any{
		"item_code": "SKU-1", "quantity": 50, "actor": "alice",
	}, &mut)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("stock in: %d", resp.StatusCode)
	}
	if mut.Balance != 50 || mut.Entry.Kind != model.KindStockIn {
		t.Errorf("unexpected mutation response: %+v", mut)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/stock/out", token, map[string]any{
		"item_code": "SKU-1", "quantity": 20, "counterparty": "customer-7",
	}, &mut)
	if resp.StatusCode != http.StatusCreated || mut.Balance != 30 {
		t.Fatalf("stock out: %d, balance %d", resp.StatusCode, mut.Balance)
	}
	// No actor in the body; the API client from the token is recorded.
	if mut.Entry.Actor != "till-1" {
		t.Errorf("expected actor till-1, got %q", mut.Entry.Actor)
	}

	// Selling more than on hand conflicts and changes nothing.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/stock/out", token, map[string]any{
		"item_code": "SKU-1", "quantity": 100,
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for oversell, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/stock/out", token, map[string]any{
		"item_code": "NOPE", "quantity": 1,
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown product, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/stock/in", token, map[string]any{
		"item_code": "SKU-1", "quantity": 0,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for zero quantity, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/stock/adjust", token, map[string]any{
		"item_code": "SKU-1", "delta": -3, "notes": "damaged in transit",
	}, &mut)
	if resp.StatusCode != http.StatusCreated || mut.Balance != 27 {
		t.Errorf("adjust: %d, balance %d", resp.StatusCode, mut.Balance)
	}

	var entries []model.LedgerEntry
	resp = doJSON(t, http.MethodGet, server.URL+"/api/products/SKU-1/ledger", token, nil, &entries)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ledger: %d", resp.StatusCode)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 ledger entries, got %d", len(entries))
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/products/SKU-1/ledger?kind=STOCK_OUT", token, nil, &entries)
	if resp.StatusCode != http.StatusOK || len(entries) != 1 {
		t.Errorf("filtered ledger: %d, %d entries", resp.StatusCode, len(entries))
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/products/SKU-1/ledger?kind=BOGUS", token, nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid kind, got %d", resp.StatusCode)
	}
}

func TestIdempotencyKeyHeader(t *testing.T) {
	server, token, _ := setupTestServer(t)

	doJSON(t, http.MethodPost, server.URL+"/api/products", token, map[string]any{
		"item_code": "SKU-1", "name": "Widget",
	}, nil)
	doJSON(t, http.MethodPost, server.URL+"/api/stock/in", token, map[string]any{
		"item_code": "SKU-1", "quantity": 10,
	}, nil)

	sale := map[string]any{"item_code": "SKU-1", "quantity": 4}

	var first, second struct {
		Entry   model.LedgerEntry `json:"entry"`
		Balance int64             `json:"balance"`
	}
	for i, out := range []any{&first, &second} {
		req, _ := authRequest(http.MethodPost, server.URL+"/api/stock/out", token, sale)
		req.Header.Set("Idempotency-Key", "sale-42")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("request %d: %d", i, resp.StatusCode)
		}
	}

	if second.Entry.ID != first.Entry.ID {
		t.Errorf("expected the replay to return the original entry, got %d vs %d", second.Entry.ID, first.Entry.ID)
	}
	if second.Balance != 6 {
		t.Errorf("expected balance 6 after replay, got %d", second.Balance)
	}
}

func TestOrderEndpoints(t *testing.T) {
	server, token, database := setupTestServer(t)
	ctx := context.Background()

	supplier, _ := store.CreateSupplier(ctx, database, "Acme Wholesale", "orders@acme.example")

	var created model.PurchaseOrder
	resp := doJSON(t, http.MethodPost, server.URL+"/api/orders", token, map[string]any{
		"supplier_id": supplier.ID,
		"items": []map[string]any{
			{"item_code": "SKU-1", "quantity": 30, "unit_cost": 2.5},
			{"item_code": "SKU-2", "quantity": 10, "unit_cost": 1.0},
		},
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: %d", resp.StatusCode)
	}
	if created.Origin != model.OrderOriginManual || created.Status != model.OrderStatusPending {
		t.Errorf("unexpected order: %+v", created)
	}
	if len(created.Items) != 2 {
		t.Errorf("expected 2 lines, got %d", len(created.Items))
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/orders", token, map[string]any{
		"supplier_id": supplier.ID + 99,
		"items":       []map[string]any{{"item_code": "SKU-1", "quantity": 1}},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown supplier, got %d", resp.StatusCode)
	}

	var fetched model.PurchaseOrder
	resp = doJSON(t, http.MethodGet, server.URL+"/api/orders/"+created.OrderNumber, token, nil, &fetched)
	if resp.StatusCode != http.StatusOK || fetched.ID != created.ID {
		t.Errorf("get order: %d, %+v", resp.StatusCode, fetched)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/orders/"+created.OrderNumber+"/fulfil", token, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("fulfil: %d", resp.StatusCode)
	}

	// Closing a non-pending order conflicts.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/orders/"+created.OrderNumber+"/cancel", token, nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 closing a fulfilled order, got %d", resp.StatusCode)
	}

	var orders []model.PurchaseOrder
	resp = doJSON(t, http.MethodGet, server.URL+"/api/orders?status=fulfilled", token, nil, &orders)
	if resp.StatusCode != http.StatusOK || len(orders) != 1 {
		t.Errorf("list fulfilled: %d, %d orders", resp.StatusCode, len(orders))
	}
}

func TestSweepEndpoint(t *testing.T) {
	server, token, database := setupTestServer(t)
	ctx := context.Background()

	supplier, _ := store.CreateSupplier(ctx, database, "Acme Wholesale", "")
	store.CreateProduct(ctx, database, "SKU-1", "Widget", 10, &supplier.ID, 2, 5)

	doJSON(t, http.MethodPost, server.URL+"/api/stock/in", token, map[string]any{
		"item_code": "SKU-1", "quantity": 50,
	}, nil)
	doJSON(t, http.MethodPost, server.URL+"/api/stock/out", token, map[string]any{
		"item_code": "SKU-1", "quantity": 45,
	}, nil)

	var result struct {
		Generated []model.PurchaseOrder      `json:"generated"`
		Skipped   []replenish.SkippedProduct `json:"skipped"`
	}
	resp := doJSON(t, http.MethodPost, server.URL+"/api/replenishment/sweep", token, nil, &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sweep: %d", resp.StatusCode)
	}
	if len(result.Generated) != 1 {
		t.Fatalf("expected 1 generated order, got %d", len(result.Generated))
	}

	orders, _ := store.ListOrders(ctx, database, model.OrderStatusPending, model.OrderOriginAuto)
	if len(orders) != 1 {
		t.Fatalf("expected 1 pending auto order, got %d", len(orders))
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/replenishment/sweep", token, nil, &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second sweep: %d", resp.StatusCode)
	}
	if len(result.Generated) != 0 {
		t.Errorf("second sweep must generate nothing, got %d", len(result.Generated))
	}
}

func TestDashboardEndpoints(t *testing.T) {
	server, token, database := setupTestServer(t)
	ctx := context.Background()

	supplier, _ := store.CreateSupplier(ctx, database, "Acme Wholesale", "")
	for i := 1; i <= 3; i++ {
		code := fmt.Sprintf("SKU-%d", i)
		store.CreateProduct(ctx, database, code, "Product "+code, 5, &supplier.ID, 1, 2)
		doJSON(t, http.MethodPost, server.URL+"/api/stock/in", token, map[string]any{
			"item_code": code, "quantity": 20,
		}, nil)
		doJSON(t, http.MethodPost, server.URL+"/api/stock/out", token, map[string]any{
			"item_code": code, "quantity": int64(i * 2),
		}, nil)
	}

	var summary model.Summary
	resp := doJSON(t, http.MethodGet, server.URL+"/api/dashboard/summary", token, nil, &summary)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: %d", resp.StatusCode)
	}
	if summary.ProductCount != 3 {
		t.Errorf("expected 3 products, got %d", summary.ProductCount)
	}
	if summary.StockInCount != 3 || summary.StockOutCount != 3 {
		t.Errorf("expected 3 stock-in and 3 stock-out entries, got %d and %d",
			summary.StockInCount, summary.StockOutCount)
	}
	if summary.LowStockCount != 0 || summary.PendingOrderCount != 0 {
		t.Errorf("expected no low-stock products or pending orders, got %d and %d",
			summary.LowStockCount, summary.PendingOrderCount)
	}

	var sellers []model.BestSeller
	resp = doJSON(t, http.MethodGet, server.URL+"/api/dashboard/best-sellers", token, nil, &sellers)
	if resp.StatusCode != http.StatusOK || len(sellers) != 3 {
		t.Fatalf("best sellers: %d, %d rows", resp.StatusCode, len(sellers))
	}
	if sellers[0].ItemCode != "SKU-3" {
		t.Errorf("expected SKU-3 first, got %s", sellers[0].ItemCode)
	}

	var activity []model.ActivityBucket
	resp = doJSON(t, http.MethodGet, server.URL+"/api/dashboard/activity?days=7", token, nil, &activity)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activity: %d", resp.StatusCode)
	}

	var low []model.Product
	resp = doJSON(t, http.MethodGet, server.URL+"/api/dashboard/low-stock", token, nil, &low)
	if resp.StatusCode != http.StatusOK || len(low) != 0 {
		t.Errorf("low stock: %d, %d rows", resp.StatusCode, len(low))
	}

}
