package billing

import (
	"context"

	"github.com/gross-ict/billing-engine/internal/domain/repository"
)

// InvoicingTxRunner ejecuta una función con un repositorio de facturas atado
// a una transacción. La cabecera, sus líneas y la lectura del consecutivo
// ocurren dentro de la misma tx: es lo que serializa la numeración.
type InvoicingTxRunner interface {
	RunInvoicing(ctx context.Context, fn func(invoices repository.InvoiceRepository) error) error
}
