// Package inventory is the only writer of product balances. Every mutation
// takes a per-product lock, applies the delta and appends a ledger row in a
// single transaction, and publishes events only after the commit.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/squaremart/stockd/internal/metrics"
	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/notify"
	"github.com/squaremart/stockd/internal/store"
)

// LowStockTrigger receives post-commit low-stock signals. Implementations
// must not block; replenishment runs outside the mutation path.
type LowStockTrigger interface {
	Trigger(itemCode string, balance int64)
}

// Service applies stock mutations. Construct with New and share one instance;
// the per-product locks only serialize writers that go through it.
type Service struct {
	db         *sql.DB
	locks      *keyedLocks
	dispatcher *notify.Dispatcher
	low        LowStockTrigger
	log        *slog.Logger
}

// New creates the inventory service. dispatcher and low may be nil, in which
// case post-commit side effects are skipped.
func New(db *sql.DB, dispatcher *notify.Dispatcher, low LowStockTrigger, log *slog.Logger) *Service {
	return &Service{
		db:         db,
		locks:      newKeyedLocks(),
		dispatcher: dispatcher,
		low:        low,
		log:        log,
	}
}

// Mutation is a request to change a product's balance.
type Mutation struct {
	ItemCode     string
	Kind         string
	Delta        int64 // signed; negative removes stock
	Actor        string
	Counterparty string
	Notes        string
	// IdempotencyKey, when set, makes the mutation safe to retry: a replay
	// returns the originally recorded entry instead of applying again.
	IdempotencyKey string
}

// StockIn records incoming stock.
func (s *Service) StockIn(ctx context.Context, itemCode string, qty int64, actor, notes, idemKey string) (*model.LedgerEntry, int64, error) {
	if qty <= 0 {
		return nil, 0, fmt.Errorf("%w: quantity must be positive", ErrInvalidDelta)
	}
	return s.ApplyMutation(ctx, Mutation{
		ItemCode: itemCode, Kind: model.KindStockIn, Delta: qty,
		Actor: actor, Notes: notes, IdempotencyKey: idemKey,
	})
}

// StockOut records outgoing stock (a sale or issue to a customer).
func (s *Service) StockOut(ctx context.Context, itemCode string, qty int64, actor, counterparty, notes, idemKey string) (*model.LedgerEntry, int64, error) {
	if qty <= 0 {
		return nil, 0, fmt.Errorf("%w: quantity must be positive", ErrInvalidDelta)
	}
	return s.ApplyMutation(ctx, Mutation{
		ItemCode: itemCode, Kind: model.KindStockOut, Delta: -qty,
		Actor: actor, Counterparty: counterparty, Notes: notes, IdempotencyKey: idemKey,
	})
}

// Adjust records a manual correction; the delta may be either sign.
func (s *Service) Adjust(ctx context.Context, itemCode string, delta int64, actor, notes, idemKey string) (*model.LedgerEntry, int64, error) {
	return s.ApplyMutation(ctx, Mutation{
		ItemCode: itemCode, Kind: model.KindAdjustment, Delta: delta,
		Actor: actor, Notes: notes, IdempotencyKey: idemKey,
	})
}

// ReceiveSupply records stock delivered against a supplier.
func (s *Service) ReceiveSupply(ctx context.Context, itemCode string, qty int64, actor, supplier, notes, idemKey string) (*model.LedgerEntry, int64, error) {
	if qty <= 0 {
		return nil, 0, fmt.Errorf("%w: quantity must be positive", ErrInvalidDelta)
	}
	return s.ApplyMutation(ctx, Mutation{
		ItemCode: itemCode, Kind: model.KindSupplierReceipt, Delta: qty,
		Actor: actor, Counterparty: supplier, Notes: notes, IdempotencyKey: idemKey,
	})
}

// ApplyMutation validates and applies a mutation. The balance read, balance
// write and ledger append happen under the product's lock in one transaction;
// no other mutation on the same product can interleave. On success the
// returned entry and balance are mutually consistent.
func (s *Service) ApplyMutation(ctx context.Context, m Mutation) (*model.LedgerEntry, int64, error) {
	if !model.ValidKind(m.Kind) {
		return nil, 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidDelta, m.Kind)
	}
	if m.Delta == 0 {
		return nil, 0, fmt.Errorf("%w: delta must be non-zero", ErrInvalidDelta)
	}
	if m.Delta < 0 && !model.Outgoing(m.Kind) && m.Kind != model.KindAdjustment {
		return nil, 0, fmt.Errorf("%w: %s must not remove stock", ErrInvalidDelta, m.Kind)
	}
	if m.Delta > 0 && model.Outgoing(m.Kind) {
		return nil, 0, fmt.Errorf("%w: %s must remove stock", ErrInvalidDelta, m.Kind)
	}
	if m.Actor == "" {
		m.Actor = "system"
	}

	mu := s.locks.lock(m.ItemCode)
	defer mu.Unlock()

	// Replay check under the lock so a retried mutation cannot apply twice.
	if m.IdempotencyKey != "" {
		existing, err := store.GetLedgerEntryByKey(ctx, s.db, m.IdempotencyKey)
		if err != nil {
			return nil, 0, err
		}
		if existing != nil {
			return existing, existing.BalanceAfter, nil
		}
	}

	entry, newBalance, threshold, err := s.applyTx(ctx, m)
	if err != nil {
		return nil, 0, err
	}

	metrics.MutationsTotal.WithLabelValues(m.Kind).Inc()
	s.publish(entry, newBalance, threshold)

	return entry, newBalance, nil
}

func (s *Service) applyTx(ctx context.Context, m Mutation) (*model.LedgerEntry, int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var productID, onHand, threshold int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, on_hand, reorder_threshold FROM products WHERE item_code = ?`,
		m.ItemCode,
	).Scan(&productID, &onHand, &threshold)
	if err == sql.ErrNoRows {
		metrics.MutationFailuresTotal.WithLabelValues("not_found").Inc()
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrProductNotFound, m.ItemCode)
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading balance: %w", err)
	}

	newBalance := onHand + m.Delta
	if newBalance < 0 {
		metrics.MutationFailuresTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, 0, 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, onHand, -m.Delta)
	}

	// The guard repeats the check inside the UPDATE so even a writer that
	// bypassed the product lock cannot drive the balance negative.
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET on_hand = on_hand + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND on_hand + ? >= 0`,
		m.Delta, productID, m.Delta,
	)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("updating balance: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		metrics.MutationFailuresTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, 0, 0, fmt.Errorf("%w: concurrent mutation drained stock", ErrInsufficientStock)
	}

	var mutationKey any
	if m.IdempotencyKey != "" {
		mutationKey = m.IdempotencyKey
	}
	var counterparty any
	if m.Counterparty != "" {
		counterparty = m.Counterparty
	}

	inserted, err := tx.ExecContext(ctx,
		`INSERT INTO ledger (product_id, kind, delta, balance_before, balance_after, actor, counterparty, notes, mutation_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		productID, m.Kind, m.Delta, onHand, newBalance, m.Actor, counterparty, m.Notes, mutationKey,
	)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("appending ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, 0, fmt.Errorf("committing mutation: %w", err)
	}

	entryID, _ := inserted.LastInsertId()
	entry, err := store.GetLedgerEntry(ctx, s.db, entryID)
	if err != nil {
		return nil, 0, 0, err
	}
	return entry, newBalance, threshold, nil
}

// publish runs the post-commit side effects: the stock-changed notification,
// the low-stock detector, and the replenishment trigger. All best-effort.
func (s *Service) publish(entry *model.LedgerEntry, balance, threshold int64) {
	if s.dispatcher != nil {
		s.dispatcher.Publish(model.EventKind(entry.Kind), entry.ItemCode,
			fmt.Sprintf("%s: %+d units (balance %d -> %d) by %s",
				entry.Kind, entry.Delta, entry.BalanceBefore, entry.BalanceAfter, entry.Actor))
	}

	if EvaluateStock(balance, threshold) != BelowThreshold {
		return
	}
	if s.dispatcher != nil {
		s.dispatcher.Publish(model.EventLowStock, entry.ItemCode,
			fmt.Sprintf("low stock: %d units at or below threshold %d", balance, threshold))
	}
	if s.low != nil {
		s.low.Trigger(entry.ItemCode, balance)
	}
}

// CheckConsistency replays the product's ledger and compares the running sum
// against the recorded balance.
func (s *Service) CheckConsistency(ctx context.Context, itemCode string) (bool, error) {
	p, err := store.GetProduct(ctx, s.db, itemCode)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, fmt.Errorf("%w: %s", ErrProductNotFound, itemCode)
	}
	sum, err := store.ReplaySum(ctx, s.db, p.ID)
	if err != nil {
		return false, err
	}
	if sum != p.OnHand {
		s.log.Error("ledger inconsistency", "item_code", itemCode, "on_hand", p.OnHand, "ledger_sum", sum)
		return false, nil
	}
	return true, nil
}
