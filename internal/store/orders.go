package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/squaremart/stockd/internal/model"
)

// AutoOrderParams describes an auto-generated purchase order for a single
// product that fell below its reorder threshold.
type AutoOrderParams struct {
	OrderNumber   string
	SupplierID    int64
	ProductID     int64
	ItemCode      string
	Quantity      int64
	UnitCost      float64
	Justification string
	LeadTimeDays  int
}

// CreateAutoOrder inserts a pending auto-generated order with its single line
// item. The insert is idempotent against the partial unique index on
// (product_id) WHERE status='pending' AND origin='auto': if another pending
// auto order already exists for the product, nothing is written and (nil, nil)
// is returned so the caller reports suppression instead of failing.
func CreateAutoOrder(ctx context.Context, db *sql.DB, p AutoOrderParams) (*model.PurchaseOrder, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("order quantity must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO purchase_orders (order_number, supplier_id, status, origin, product_id, justification, expected_delivery)
		 VALUES (?, ?, 'pending', 'auto', ?, ?, datetime('now', ?))
		 ON CONFLICT DO NOTHING`,
		p.OrderNumber, p.SupplierID, p.ProductID, p.Justification,
		fmt.Sprintf("+%d days", p.LeadTimeDays),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auto order: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		// Lost the race to another pending auto order; suppressed.
		return nil, nil
	}

	orderID, _ := result.LastInsertId()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchase_order_items (order_id, item_code, quantity, unit_cost)
		 VALUES (?, ?, ?, ?)`,
		orderID, p.ItemCode, p.Quantity, p.UnitCost,
	); err != nil {
		return nil, fmt.Errorf("creating auto order line: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing auto order: %w", err)
	}

	return GetOrderByID(ctx, db, orderID)
}

// FindPendingAutoOrder returns the pending auto-generated order for a product
// created within the cooldown window, or nil if there is none.
func FindPendingAutoOrder(ctx context.Context, db *sql.DB, productID int64, cooldown time.Duration) (*model.PurchaseOrder, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM purchase_orders
		 WHERE product_id = ? AND status = 'pending' AND origin = 'auto'
		   AND ordered_at >= datetime('now', ?)`,
		productID, fmt.Sprintf("-%d seconds", int64(cooldown.Seconds())),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding pending auto order: %w", err)
	}
	return GetOrderByID(ctx, db, id)
}

// CreateManualOrder inserts a pending manually entered order with its lines.
func CreateManualOrder(ctx context.Context, db *sql.DB, orderNumber string, supplierID int64, items []model.PurchaseOrderItem, leadTimeDays int) (*model.PurchaseOrder, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order must have at least one line item")
	}
	for _, item := range items {
		if item.ItemCode == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("order lines need an item code and a positive quantity")
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO purchase_orders (order_number, supplier_id, status, origin, expected_delivery)
		 VALUES (?, ?, 'pending', 'manual', datetime('now', ?))`,
		orderNumber, supplierID, fmt.Sprintf("+%d days", leadTimeDays),
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	orderID, _ := result.LastInsertId()
	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO purchase_order_items (order_id, item_code, quantity, unit_cost)
			 VALUES (?, ?, ?, ?)`,
			orderID, item.ItemCode, item.Quantity, item.UnitCost,
		); err != nil {
			return nil, fmt.Errorf("creating order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	return GetOrderByID(ctx, db, orderID)
}

// GetOrderByID returns an order with its lines, or nil if it does not exist.
func GetOrderByID(ctx context.Context, db *sql.DB, id int64) (*model.PurchaseOrder, error) {
	return getOrder(ctx, db, `o.id = ?`, id)
}

// GetOrderByNumber returns an order with its lines, or nil if it does not exist.
func GetOrderByNumber(ctx context.Context, db *sql.DB, orderNumber string) (*model.PurchaseOrder, error) {
	return getOrder(ctx, db, `o.order_number = ?`, orderNumber)
}

func getOrder(ctx context.Context, db *sql.DB, where string, arg any) (*model.PurchaseOrder, error) {
	o := &model.PurchaseOrder{}
	var justification sql.NullString
	var expected sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT o.id, o.order_number, o.supplier_id, o.status, o.origin, o.product_id,
		        o.justification, o.ordered_at, o.expected_delivery, o.closed_at, s.name
		 FROM purchase_orders o
		 JOIN suppliers s ON s.id = o.supplier_id
		 WHERE `+where, arg,
	).Scan(&o.ID, &o.OrderNumber, &o.SupplierID, &o.Status, &o.Origin, &o.ProductID,
		&justification, &o.OrderedAt, &expected, &o.ClosedAt, &o.SupplierName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	o.Justification = justification.String
	o.ExpectedDelivery = expected.Time

	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, item_code, quantity, unit_cost
		 FROM purchase_order_items WHERE order_id = ? ORDER BY id`, o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ItemCode, &item.Quantity, &item.UnitCost); err != nil {
			return nil, fmt.Errorf("scanning order line: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

// ListOrders returns orders, optionally filtered by status and origin,
// newest first. Lines are not populated.
func ListOrders(ctx context.Context, db *sql.DB, status, origin string) ([]model.PurchaseOrder, error) {
	query := `SELECT o.id, o.order_number, o.supplier_id, o.status, o.origin, o.product_id,
	                 o.justification, o.ordered_at, o.expected_delivery, o.closed_at, s.name
	          FROM purchase_orders o
	          JOIN suppliers s ON s.id = o.supplier_id
	          WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND o.status = ?`
		args = append(args, status)
	}
	if origin != "" {
		query += ` AND o.origin = ?`
		args = append(args, origin)
	}

	query += ` ORDER BY o.ordered_at DESC, o.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []model.PurchaseOrder
	for rows.Next() {
		var o model.PurchaseOrder
		var justification sql.NullString
		var expected sql.NullTime
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.SupplierID, &o.Status, &o.Origin, &o.ProductID,
			&justification, &o.OrderedAt, &expected, &o.ClosedAt, &o.SupplierName); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		o.Justification = justification.String
		o.ExpectedDelivery = expected.Time
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CloseOrder moves a pending order to fulfilled or cancelled. Returns false
// if the order does not exist or is not pending; closed orders never reopen.
func CloseOrder(ctx context.Context, db *sql.DB, orderNumber, status string) (bool, error) {
	if status != model.OrderStatusFulfilled && status != model.OrderStatusCancelled {
		return false, fmt.Errorf("invalid close status %q", status)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE purchase_orders
		 SET status = ?, closed_at = CURRENT_TIMESTAMP
		 WHERE order_number = ? AND status = 'pending'`,
		status, orderNumber,
	)
	if err != nil {
		return false, fmt.Errorf("closing order: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}
