package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/squaremart/stockd/internal/model"
)

// Read-only aggregations over the ledger for the dashboard. These reflect
// committed state only and are safe to serve slightly stale.

// GetSummary returns the dashboard headline counters.
func GetSummary(ctx context.Context, db *sql.DB) (*model.Summary, error) {
	s := &model.Summary{}
	err := db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM products),
		        (SELECT COUNT(*) FROM ledger WHERE kind = 'STOCK_IN'),
		        (SELECT COUNT(*) FROM ledger WHERE kind = 'STOCK_OUT'),
		        (SELECT COUNT(*) FROM products WHERE reorder_threshold > 0 AND on_hand <= reorder_threshold),
		        (SELECT COUNT(*) FROM purchase_orders WHERE status = 'pending')`,
	).Scan(&s.ProductCount, &s.StockInCount, &s.StockOutCount, &s.LowStockCount, &s.PendingOrderCount)
	if err != nil {
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	return s, nil
}

// DailyActivity returns day-bucketed ledger entry counts for the trailing
// number of days, oldest day first.
func DailyActivity(ctx context.Context, db *sql.DB, days int) ([]model.ActivityBucket, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}

	rows, err := db.QueryContext(ctx,
		`SELECT date(created_at),
		        COUNT(CASE WHEN kind = 'STOCK_IN' THEN 1 END),
		        COUNT(CASE WHEN kind = 'STOCK_OUT' THEN 1 END)
		 FROM ledger
		 WHERE created_at >= datetime('now', ?)
		 GROUP BY date(created_at)
		 ORDER BY date(created_at)`,
		fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return nil, fmt.Errorf("getting daily activity: %w", err)
	}
	defer rows.Close()

	var buckets []model.ActivityBucket
	for rows.Next() {
		var b model.ActivityBucket
		if err := rows.Scan(&b.Day, &b.StockIn, &b.StockOut); err != nil {
			return nil, fmt.Errorf("scanning activity bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// BestSellers returns products ranked by outgoing units in the trailing
// window. Deltas are negative for STOCK_OUT, so the sum is negated.
func BestSellers(ctx context.Context, db *sql.DB, days, limit int) ([]model.BestSeller, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.QueryContext(ctx,
		`SELECT p.item_code, p.name, -SUM(l.delta)
		 FROM ledger l
		 JOIN products p ON p.id = l.product_id
		 WHERE l.kind = 'STOCK_OUT' AND l.created_at >= datetime('now', ?)
		 GROUP BY l.product_id
		 ORDER BY SUM(l.delta) ASC, p.item_code
		 LIMIT ?`,
		fmt.Sprintf("-%d days", days), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("getting best sellers: %w", err)
	}
	defer rows.Close()

	var sellers []model.BestSeller
	for rows.Next() {
		var b model.BestSeller
		if err := rows.Scan(&b.ItemCode, &b.Name, &b.UnitsOut); err != nil {
			return nil, fmt.Errorf("scanning best seller: %w", err)
		}
		sellers = append(sellers, b)
	}
	return sellers, rows.Err()
}
