package model

import "time"

// Purchase order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCancelled = "cancelled"
)

// Purchase order origins.
const (
	OrderOriginManual = "manual"
	OrderOriginAuto   = "auto"
)

// PurchaseOrder is a request to a supplier. Auto-generated orders carry the
// product that triggered them and a justification; at most one pending auto
// order may exist per product (enforced by a partial unique index).
type PurchaseOrder struct {
	ID               int64      `json:"id"`
	OrderNumber      string     `json:"order_number"`
	SupplierID       int64      `json:"supplier_id"`
	Status           string     `json:"status"`
	Origin           string     `json:"origin"`
	ProductID        *int64     `json:"product_id,omitempty"`
	Justification    string     `json:"justification,omitempty"`
	OrderedAt        time.Time  `json:"ordered_at"`
	ExpectedDelivery time.Time  `json:"expected_delivery"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`

	// Joined fields (not always populated).
	SupplierName string              `json:"supplier_name,omitempty"`
	Items        []PurchaseOrderItem `json:"items,omitempty"`
}

// PurchaseOrderItem is a single line of a purchase order.
type PurchaseOrderItem struct {
	ID       int64   `json:"id"`
	OrderID  int64   `json:"order_id"`
	ItemCode string  `json:"item_code"`
	Quantity int64   `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

// Supplier is a vendor purchase orders are routed to.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
