package model

// Summary is the dashboard headline counters, derived from the ledger and
// order tables.
type Summary struct {
	ProductCount      int64 `json:"product_count"`
	StockInCount      int64 `json:"stock_in_count"`
	StockOutCount     int64 `json:"stock_out_count"`
	LowStockCount     int64 `json:"low_stock_count"`
	PendingOrderCount int64 `json:"pending_order_count"`
}

// ActivityBucket is one day of ledger activity for charting.
type ActivityBucket struct {
	Day      string `json:"day"`
	StockIn  int64  `json:"stock_in"`
	StockOut int64  `json:"stock_out"`
}

// BestSeller is a product ranked by units sold in a trailing window.
type BestSeller struct {
	ItemCode string `json:"item_code"`
	Name     string `json:"name"`
	UnitsOut int64  `json:"units_out"`
}
