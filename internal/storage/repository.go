package storage

import (
	"context"
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// Repository bulk loads generated records into Postgres.
type Repository interface {
	InsertProducts(ctx context.Context, products []models.Product) error
	InsertTrades(ctx context.Context, trades []models.Trade) error
	InsertRisks(ctx context.Context, risks []models.Risk) error
	// Reset empties the tables before a new run.
	Reset(ctx context.Context) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

var (
	productColumns = []string{
		"id", "product_name", "product_type", "underlier_code", "underlier_currency", "underlier_type",
		"underlier_value", "product_base_mtm", "bumped_mtm_up", "bumped_mtm_down", "theta", "rho",
	}
	tradeColumns = []string{
		"id", "product_id", "product_qty_multiplier", "desk", "book", "trader", "counterparty",
		"trade_date", "status", "is_simulated",
	}
	riskColumns = []string{"trade_id", "delta", "gamma", "vega", "pnl", "pnl_vector"}
)

func (r *repository) InsertProducts(ctx context.Context, products []models.Product) error {
	return r.copyIn(ctx, "products", productColumns, len(products), func(i int) []any {
		p := products[i]
		return []any{
			p.Id, p.ProductName, p.ProductType, p.UnderlierCode, p.UnderlierCurrency, p.UnderlierType,
			p.UnderlierValue, p.ProductBaseMtm, p.BumpedMtmUp, p.BumpedMtmDown, p.Theta, p.Rho,
		}
	})
}

func (r *repository) InsertTrades(ctx context.Context, trades []models.Trade) error {
	return r.copyIn(ctx, "trades", tradeColumns, len(trades), func(i int) []any {
		t := trades[i]
		return []any{
			t.Id, t.ProductId, t.ProductQtyMultiplier, t.Desk, t.Book, t.Trader, t.Counterparty,
			t.Date, t.Status, t.IsSimulated,
		}
	})
}

func (r *repository) InsertRisks(ctx context.Context, risks []models.Risk) error {
	return r.copyIn(ctx, "risks", riskColumns, len(risks), func(i int) []any {
		k := risks[i]
		return []any{k.TradeId, k.Delta, k.Gamma, k.Vega, k.Pnl, pq.Array(k.PnlVector)}
	})
}

func (r *repository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE TABLE risks, trades, products`)
	return err
}

// copyIn streams n rows into table with COPY in a single transaction.
func (r *repository) copyIn(ctx context.Context, table string, columns []string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("copy %s row %d: %w", table, i, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return fmt.Errorf("copy %s: %w", table, err)
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
