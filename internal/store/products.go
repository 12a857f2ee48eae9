package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/squaremart/stockd/internal/model"
)

// CreateProduct registers a product with a zero opening balance. Stock is
// only ever added through the inventory service.
func CreateProduct(ctx context.Context, db *sql.DB, itemCode, name string, threshold int64, supplierID *int64, unitCost, unitPrice float64) (*model.Product, error) {
	if itemCode == "" || name == "" {
		return nil, fmt.Errorf("item code and name are required")
	}
	if threshold < 0 {
		return nil, fmt.Errorf("reorder threshold must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO products (item_code, name, reorder_threshold, supplier_id, unit_cost, unit_price)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemCode, name, threshold, supplierID, unitCost, unitPrice,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetProductByID(ctx, db, id)
}

// GetProduct returns a product by item code, or nil if it does not exist.
func GetProduct(ctx context.Context, db *sql.DB, itemCode string) (*model.Product, error) {
	return getProduct(ctx, db, `p.item_code = ?`, itemCode)
}

// GetProductByID returns a product by ID, or nil if it does not exist.
func GetProductByID(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	return getProduct(ctx, db, `p.id = ?`, id)
}

func getProduct(ctx context.Context, db *sql.DB, where string, arg any) (*model.Product, error) {
	p := &model.Product{}
	var supplierName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT p.id, p.item_code, p.name, p.on_hand, p.reorder_threshold, p.supplier_id,
		        p.unit_cost, p.unit_price, p.created_at, p.updated_at, s.name
		 FROM products p
		 LEFT JOIN suppliers s ON s.id = p.supplier_id
		 WHERE `+where, arg,
	).Scan(&p.ID, &p.ItemCode, &p.Name, &p.OnHand, &p.ReorderThreshold, &p.SupplierID,
		&p.UnitCost, &p.UnitPrice, &p.CreatedAt, &p.UpdatedAt, &supplierName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p.SupplierName = supplierName.String
	return p, nil
}

// ListProducts returns all products ordered by item code.
func ListProducts(ctx context.Context, db *sql.DB) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.item_code, p.name, p.on_hand, p.reorder_threshold, p.supplier_id,
		        p.unit_cost, p.unit_price, p.created_at, p.updated_at, s.name
		 FROM products p
		 LEFT JOIN suppliers s ON s.id = p.supplier_id
		 ORDER BY p.item_code`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListLowStock returns products at or below their reorder threshold, skipping
// products with reordering disabled (threshold 0).
func ListLowStock(ctx context.Context, db *sql.DB) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.item_code, p.name, p.on_hand, p.reorder_threshold, p.supplier_id,
		        p.unit_cost, p.unit_price, p.created_at, p.updated_at, s.name
		 FROM products p
		 LEFT JOIN suppliers s ON s.id = p.supplier_id
		 WHERE p.reorder_threshold > 0 AND p.on_hand <= p.reorder_threshold
		 ORDER BY p.item_code`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low-stock products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// UpdateReorderPolicy sets a product's reorder threshold and preferred
// supplier. Returns false if the product does not exist.
func UpdateReorderPolicy(ctx context.Context, db *sql.DB, itemCode string, threshold int64, supplierID *int64) (bool, error) {
	if threshold < 0 {
		return false, fmt.Errorf("reorder threshold must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET reorder_threshold = ?, supplier_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE item_code = ?`,
		threshold, supplierID, itemCode,
	)
	if err != nil {
		return false, fmt.Errorf("updating reorder policy: %w", err)
	}

	n, _ := result.RowsAffected()
	return n > 0, nil
}

func scanProducts(rows *sql.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		var p model.Product
		var supplierName sql.NullString
		if err := rows.Scan(&p.ID, &p.ItemCode, &p.Name, &p.OnHand, &p.ReorderThreshold, &p.SupplierID,
			&p.UnitCost, &p.UnitPrice, &p.CreatedAt, &p.UpdatedAt, &supplierName); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.SupplierName = supplierName.String
		products = append(products, p)
	}
	return products, rows.Err()
}
