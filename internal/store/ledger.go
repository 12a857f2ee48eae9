package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/squaremart/stockd/internal/model"
)

// sqliteTime matches the text format SQLite's CURRENT_TIMESTAMP produces, so
// range filters compare correctly against stored values.
const sqliteTime = "2006-01-02 15:04:05"

const defaultPageSize = 50

// ListLedger returns ledger entries for a product, newest first, with
// optional kind and date-range filters and page-based pagination.
func ListLedger(ctx context.Context, db *sql.DB, itemCode string, filter model.LedgerFilter) ([]model.LedgerEntry, error) {
	query := `SELECT l.id, l.product_id, l.kind, l.delta, l.balance_before, l.balance_after,
	                 l.actor, l.counterparty, l.notes, l.mutation_key, l.verified, l.created_at,
	                 p.item_code
	          FROM ledger l
	          JOIN products p ON p.id = l.product_id
	          WHERE p.item_code = ?`
	args := []any{itemCode}

	if filter.Kind != "" {
		query += ` AND l.kind = ?`
		args = append(args, filter.Kind)
	}
	if !filter.Since.IsZero() {
		query += ` AND l.created_at >= ?`
		args = append(args, filter.Since.UTC().Format(sqliteTime))
	}
	if !filter.Until.IsZero() {
		query += ` AND l.created_at <= ?`
		args = append(args, filter.Until.UTC().Format(sqliteTime))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query += ` ORDER BY l.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetLedgerEntry returns a ledger entry by ID, or nil if it does not exist.
func GetLedgerEntry(ctx context.Context, db *sql.DB, id int64) (*model.LedgerEntry, error) {
	return getLedgerEntry(ctx, db, `l.id = ?`, id)
}

// GetLedgerEntryByKey returns the ledger entry recorded for an idempotency
// key, or nil if no mutation with that key has been applied.
func GetLedgerEntryByKey(ctx context.Context, db *sql.DB, mutationKey string) (*model.LedgerEntry, error) {
	return getLedgerEntry(ctx, db, `l.mutation_key = ?`, mutationKey)
}

func getLedgerEntry(ctx context.Context, db *sql.DB, where string, arg any) (*model.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT l.id, l.product_id, l.kind, l.delta, l.balance_before, l.balance_after,
		        l.actor, l.counterparty, l.notes, l.mutation_key, l.verified, l.created_at,
		        p.item_code
		 FROM ledger l
		 JOIN products p ON p.id = l.product_id
		 WHERE `+where, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("getting ledger entry: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// SetVerified marks a ledger entry as verified (or not). Verification is a
// downstream approval flag and never gates the recorded mutation. Returns
// false if the entry does not exist.
func SetVerified(ctx context.Context, db *sql.DB, id int64, verified bool) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE ledger SET verified = ? WHERE id = ?`, verified, id,
	)
	if err != nil {
		return false, fmt.Errorf("setting verified flag: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ReplaySum returns the sum of all ledger deltas for a product. For a
// consistent ledger this equals the product's on-hand quantity.
func ReplaySum(ctx context.Context, db *sql.DB, productID int64) (int64, error) {
	var sum int64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM ledger WHERE product_id = ?`, productID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("replaying ledger: %w", err)
	}
	return sum, nil
}

func scanLedgerEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		var counterparty, notes, mutationKey sql.NullString
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Kind, &e.Delta, &e.BalanceBefore, &e.BalanceAfter,
			&e.Actor, &counterparty, &notes, &mutationKey, &e.Verified, &e.CreatedAt,
			&e.ItemCode); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		e.Counterparty = counterparty.String
		e.Notes = notes.String
		e.MutationKey = mutationKey.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
