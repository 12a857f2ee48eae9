package model

import "time"

// Ledger entry kinds.
const (
	KindStockIn         = "STOCK_IN"
	KindStockOut        = "STOCK_OUT"
	KindAdjustment      = "ADJUSTMENT"
	KindSupplierReceipt = "SUPPLIER_RECEIPT"
)

// ValidKind reports whether kind is one of the ledger entry kinds.
func ValidKind(kind string) bool {
	switch kind {
	case KindStockIn, KindStockOut, KindAdjustment, KindSupplierReceipt:
		return true
	}
	return false
}

// Outgoing reports whether the kind removes stock.
func Outgoing(kind string) bool {
	return kind == KindStockOut
}

// LedgerEntry is an immutable record of a single balance change. For a
// product's ordered entries, balance_after of entry n equals balance_before
// of entry n+1, and replaying the deltas from zero reproduces the current
// on-hand quantity.
type LedgerEntry struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	Kind          string    `json:"kind"`
	Delta         int64     `json:"delta"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Actor         string    `json:"actor"`
	Counterparty  string    `json:"counterparty,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	MutationKey   string    `json:"mutation_key,omitempty"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ItemCode string `json:"item_code,omitempty"`
}

// LedgerFilter narrows ledger queries. Zero values mean "no filter".
type LedgerFilter struct {
	Kind  string
	Since time.Time
	Until time.Time
	Page  int
	Limit int
}
