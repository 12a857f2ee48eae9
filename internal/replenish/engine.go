// Package replenish turns low-stock signals into purchase orders. Order
// creation is best-effort and decoupled from the mutation that triggered it;
// the periodic sweep re-evaluates every product so a dropped trigger is
// eventually corrected.
package replenish

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/squaremart/stockd/internal/inventory"
	"github.com/squaremart/stockd/internal/metrics"
	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/notify"
	"github.com/squaremart/stockd/internal/store"
)

// Skip reasons reported by MaybeReplenish and the sweep.
const (
	SkipNoSupplier   = "no supplier assigned"
	SkipDisabled     = "reordering disabled"
	SkipPendingOrder = "pending auto order exists"
)

// Engine creates auto-generated purchase orders for low-stock products.
type Engine struct {
	db         *sql.DB
	dir        SupplierDirectory
	dispatcher *notify.Dispatcher
	log        *slog.Logger

	cooldown     time.Duration
	leadTimeDays int

	triggers chan trigger
}

type trigger struct {
	itemCode string
}

// Config carries the engine's tunables.
type Config struct {
	Cooldown     time.Duration // suppression window for duplicate auto orders
	LeadTimeDays int           // expected delivery offset on created orders
	QueueSize    int           // async trigger queue capacity
}

// NewEngine creates the engine. dispatcher may be nil.
func NewEngine(db *sql.DB, dir SupplierDirectory, dispatcher *notify.Dispatcher, cfg Config, log *slog.Logger) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 7 * 24 * time.Hour
	}
	if cfg.LeadTimeDays <= 0 {
		cfg.LeadTimeDays = 7
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	return &Engine{
		db:           db,
		dir:          dir,
		dispatcher:   dispatcher,
		log:          log,
		cooldown:     cfg.Cooldown,
		leadTimeDays: cfg.LeadTimeDays,
		triggers:     make(chan trigger, cfg.QueueSize),
	}
}

// Trigger enqueues an async replenishment check. Never blocks: a full queue
// drops the trigger and the sweep picks the product up later.
func (e *Engine) Trigger(itemCode string, _ int64) {
	select {
	case e.triggers <- trigger{itemCode: itemCode}:
	default:
		e.log.Warn("replenishment trigger queue full", "item_code", itemCode)
	}
}

// Run consumes async triggers and, when interval > 0, runs the reconciliation
// sweep on a ticker. Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case tr := <-e.triggers:
			e.handleTrigger(ctx, tr.itemCode)
		case <-tick:
			if _, err := e.CheckAllLowStock(ctx); err != nil {
				e.log.Error("reconciliation sweep failed", "err", err)
			}
		}
	}
}

func (e *Engine) handleTrigger(ctx context.Context, itemCode string) {
	p, err := store.GetProduct(ctx, e.db, itemCode)
	if err != nil {
		e.log.Error("replenishment trigger: loading product", "item_code", itemCode, "err", err)
		return
	}
	if p == nil {
		return
	}
	// Re-evaluate against the fresh balance; the trigger may be stale.
	if inventory.EvaluateStock(p.OnHand, p.ReorderThreshold) != inventory.BelowThreshold {
		return
	}
	if _, _, err := e.MaybeReplenish(ctx, p, p.OnHand); err != nil {
		e.log.Error("replenishment failed, sweep will retry", "item_code", itemCode, "err", err)
	}
}

// MaybeReplenish creates an auto order for a product known to be below its
// threshold. Returns (nil, reason, nil) when the order is skipped or
// suppressed. Failures here never affect the mutation that triggered them.
func (e *Engine) MaybeReplenish(ctx context.Context, p *model.Product, balance int64) (*model.PurchaseOrder, string, error) {
	if !p.ReorderEnabled() {
		return nil, SkipDisabled, nil
	}

	supplier, err := e.dir.ResolveSupplier(ctx, p)
	if err != nil {
		return nil, "", fmt.Errorf("resolving supplier: %w", err)
	}
	if supplier == nil {
		return nil, SkipNoSupplier, nil
	}

	existing, err := store.FindPendingAutoOrder(ctx, e.db, p.ID, e.cooldown)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, SkipPendingOrder, nil
	}

	qty := reorderQuantity(p.ReorderThreshold)
	order, err := store.CreateAutoOrder(ctx, e.db, store.AutoOrderParams{
		OrderNumber:   NewOrderNumber(),
		SupplierID:    supplier.ID,
		ProductID:     p.ID,
		ItemCode:      p.ItemCode,
		Quantity:      qty,
		UnitCost:      lineCost(p),
		Justification: fmt.Sprintf("auto-reorder: balance %d at or below threshold %d", balance, p.ReorderThreshold),
		LeadTimeDays:  e.leadTimeDays,
	})
	if err != nil {
		return nil, "", err
	}
	if order == nil {
		// The unique-index backstop caught a concurrent insert.
		return nil, SkipPendingOrder, nil
	}

	metrics.AutoOrdersTotal.Inc()
	e.log.Info("auto order created", "order_number", order.OrderNumber,
		"item_code", p.ItemCode, "quantity", qty, "supplier", supplier.Name)
	if e.dispatcher != nil {
		e.dispatcher.Publish(model.EventOrderCreated, p.ItemCode,
			fmt.Sprintf("purchase order %s: %d units of %s from %s",
				order.OrderNumber, qty, p.ItemCode, supplier.Name))
	}

	return order, "", nil
}

// SweepResult reports what a reconciliation pass did.
type SweepResult struct {
	Generated []model.PurchaseOrder `json:"generated"`
	Skipped   []SkippedProduct      `json:"skipped"`
}

// SkippedProduct names a low-stock product the sweep did not order for.
type SkippedProduct struct {
	ItemCode string `json:"item_code"`
	Reason   string `json:"reason"`
}

// CheckAllLowStock scans every product at or below its threshold and orders
// for any not already covered. Idempotent: a second pass with no intervening
// mutations generates nothing.
func (e *Engine) CheckAllLowStock(ctx context.Context) (*SweepResult, error) {
	metrics.SweepRunsTotal.Inc()

	low, err := store.ListLowStock(ctx, e.db)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for i := range low {
		p := &low[i]
		order, reason, err := e.MaybeReplenish(ctx, p, p.OnHand)
		if err != nil {
			e.log.Error("sweep: replenishment failed", "item_code", p.ItemCode, "err", err)
			result.Skipped = append(result.Skipped, SkippedProduct{ItemCode: p.ItemCode, Reason: err.Error()})
			continue
		}
		if order == nil {
			result.Skipped = append(result.Skipped, SkippedProduct{ItemCode: p.ItemCode, Reason: reason})
			continue
		}
		result.Generated = append(result.Generated, *order)
	}
	return result, nil
}

// reorderQuantity is deliberately conservative: enough that frequent small
// sales don't re-trigger the next day.
func reorderQuantity(threshold int64) int64 {
	qty := 2 * threshold
	if threshold+10 > qty {
		qty = threshold + 10
	}
	return qty
}

// lineCost prices the order line: purchase cost if known, else list price,
// else zero.
func lineCost(p *model.Product) float64 {
	if p.UnitCost > 0 {
		return p.UnitCost
	}
	if p.UnitPrice > 0 {
		return p.UnitPrice
	}
	return 0
}

// NewOrderNumber generates a unique purchase order number.
func NewOrderNumber() string {
	return "PO-" + strings.ToUpper(uuid.NewString()[:8])
}
