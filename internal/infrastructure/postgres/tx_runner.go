package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gross-ict/billing-engine/internal/application/billing"
	"github.com/gross-ict/billing-engine/internal/domain/repository"
)

// Ensure TxRunner implements billing.InvoicingTxRunner.
var _ billing.InvoicingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInvoicing inicia una transacción, ejecuta fn con un repositorio de
// facturas atado a la tx y hace Commit o Rollback. Leer el consecutivo
// máximo e insertar dentro de la misma tx, junto con el índice único sobre
// invoice_number, serializa la numeración.
func (r *TxRunner) RunInvoicing(ctx context.Context, fn func(invoices repository.InvoiceRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInvoiceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
