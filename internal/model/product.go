package model

import "time"

// Product is a catalog item tracked by the ledger. The item code is the
// immutable business key; the on-hand quantity is only ever changed through
// the inventory service, never written directly.
type Product struct {
	ID               int64     `json:"id"`
	ItemCode         string    `json:"item_code"`
	Name             string    `json:"name"`
	OnHand           int64     `json:"on_hand"`
	ReorderThreshold int64     `json:"reorder_threshold"`
	SupplierID       *int64    `json:"supplier_id,omitempty"`
	UnitCost         float64   `json:"unit_cost"`
	UnitPrice        float64   `json:"unit_price"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	SupplierName string `json:"supplier_name,omitempty"`
}

// ReorderEnabled reports whether low-stock detection applies to this product.
// A zero threshold means reordering is disabled.
func (p *Product) ReorderEnabled() bool {
	return p.ReorderThreshold > 0
}
