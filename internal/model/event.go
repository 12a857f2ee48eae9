package model

// Event kinds published after committed mutations.
const (
	EventStockIn         = "stock_in"
	EventStockOut        = "stock_out"
	EventAdjustment      = "adjustment"
	EventSupplierReceipt = "supplier_receipt"
	EventLowStock        = "low_stock"
	EventOrderCreated    = "order_created"
)

// EventKind maps a ledger kind to its event kind.
func EventKind(ledgerKind string) string {
	switch ledgerKind {
	case KindStockIn:
		return EventStockIn
	case KindStockOut:
		return EventStockOut
	case KindSupplierReceipt:
		return EventSupplierReceipt
	default:
		return EventAdjustment
	}
}
