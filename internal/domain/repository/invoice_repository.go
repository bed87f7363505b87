package repository

import (
	"context"
	"time"

	"github.com/gross-ict/billing-engine/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
type InvoiceRepository interface {
	// Create persiste la cabecera. Si el invoice_number ya existe devuelve
	// domain.ErrDuplicate (el caller reintenta con el siguiente consecutivo).
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	// MaxNumberForYear devuelve el invoice_number más alto con prefijo
	// "{year}-" ("" si no hay ninguno ese año).
	MaxNumberForYear(ctx context.Context, year int) (string, error)
	// ListOverdue devuelve las facturas candidatas a recordatorio:
	// status IN (sent, overdue) y due_date < now. Las pagadas, anuladas y
	// en borrador nunca son candidatas.
	ListOverdue(ctx context.Context, now time.Time) ([]*entity.Invoice, error)
	// UpdateStatus transiciona status de from a to. Si la factura ya no está
	// en from no hace nada (la transición es unidireccional e idempotente).
	UpdateStatus(ctx context.Context, invoiceID, from, to string) error
}
