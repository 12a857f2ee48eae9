package replenish

import (
	"context"
	"database/sql"

	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/store"
)

// SupplierDirectory resolves the supplier an auto order should be routed to.
// A nil supplier (with nil error) means the product has no assigned supplier
// and cannot be auto-replenished.
type SupplierDirectory interface {
	ResolveSupplier(ctx context.Context, p *model.Product) (*model.Supplier, error)
}

// StoreDirectory resolves suppliers from the suppliers table via the
// product's preferred supplier reference.
type StoreDirectory struct {
	DB *sql.DB
}

func (d *StoreDirectory) ResolveSupplier(ctx context.Context, p *model.Product) (*model.Supplier, error) {
	if p.SupplierID == nil {
		return nil, nil
	}
	return store.GetSupplier(ctx, d.DB, *p.SupplierID)
}
