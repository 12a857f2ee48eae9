package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/squaremart/stockd/internal/model"
)

// CreateSupplier registers a supplier.
func CreateSupplier(ctx context.Context, db *sql.DB, name, contact string) (*model.Supplier, error) {
	if name == "" {
		return nil, fmt.Errorf("supplier name is required")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO suppliers (name, contact) VALUES (?, ?)`, name, contact,
	)
	if err != nil {
		return nil, fmt.Errorf("creating supplier: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetSupplier(ctx, db, id)
}

// GetSupplier returns a supplier by ID, or nil if it does not exist.
func GetSupplier(ctx context.Context, db *sql.DB, id int64) (*model.Supplier, error) {
	s := &model.Supplier{}
	var contact sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, contact, created_at FROM suppliers WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &contact, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting supplier: %w", err)
	}
	s.Contact = contact.String
	return s, nil
}

// ListSuppliers returns all suppliers ordered by name.
func ListSuppliers(ctx context.Context, db *sql.DB) ([]model.Supplier, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, contact, created_at FROM suppliers ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var s model.Supplier
		var contact sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &contact, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning supplier: %w", err)
		}
		s.Contact = contact.String
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}
