package inventory

// StockLevel is the low-stock detector's verdict for a balance.
type StockLevel int

const (
	// NotLow means the balance is above the threshold, or reordering is disabled.
	NotLow StockLevel = iota
	// BelowThreshold means the balance is at or below a non-zero threshold.
	BelowThreshold
)

// EvaluateStock is the low-stock detector: pure, no persisted state. A
// threshold of zero means reordering is disabled and never triggers. A
// balance exactly at the threshold triggers.
func EvaluateStock(balance, threshold int64) StockLevel {
	if threshold > 0 && balance <= threshold {
		return BelowThreshold
	}
	return NotLow
}
