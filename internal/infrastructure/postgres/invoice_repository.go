package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gross-ict/billing-engine/internal/domain"
	"github.com/gross-ict/billing-engine/internal/domain/entity"
	"github.com/gross-ict/billing-engine/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura. Devuelve domain.ErrDuplicate
// si el invoice_number ya existe (índice único).
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (id, invoice_number, customer_id, invoice_date, due_date, status,
		                      subtotal, discount_amount, vat_amount, total_amount, notes, footer_text,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, invoice.InvoiceDate, invoice.DueDate,
		invoice.Status, invoice.Subtotal, invoice.DiscountAmount, invoice.VATAmount, invoice.TotalAmount,
		nullIfEmpty(invoice.Notes), nullIfEmpty(invoice.FooterText),
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número de factura %s: %w", invoice.InvoiceNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la factura.
func (r *InvoiceRepo) CreateItem(ctx context.Context, item *entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit,
		                           unit_price, vat_rate, discount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.InvoiceID, item.Position, item.Description, item.Quantity, item.Unit,
		item.UnitPrice, item.VATRate, item.Discount, item.Total,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// MaxNumberForYear devuelve el invoice_number más alto del año ("" si no hay).
// Se ordena por el sufijo numérico: el orden lexicográfico se rompería al
// pasar de 999 a 1000.
func (r *InvoiceRepo) MaxNumberForYear(ctx context.Context, year int) (string, error) {
	query := `
		SELECT invoice_number FROM invoices
		WHERE invoice_number LIKE $1
		ORDER BY split_part(invoice_number, '-', 2)::int DESC
		LIMIT 1`
	var number string
	err := r.q.QueryRow(ctx, query, fmt.Sprintf("%d-%%", year)).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("max invoice number: %w", err)
	}
	return number, nil
}

// ListOverdue devuelve las facturas candidatas a recordatorio:
// status sent u overdue, vencidas antes de now.
func (r *InvoiceRepo) ListOverdue(ctx context.Context, now time.Time) ([]*entity.Invoice, error) {
	query := `
		SELECT id, invoice_number, customer_id, invoice_date, due_date, status,
		       subtotal, discount_amount, vat_amount, total_amount,
		       notes, footer_text, created_at, updated_at
		FROM invoices
		WHERE status IN ($1, $2) AND due_date < $3
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, entity.InvoiceStatusSent, entity.InvoiceStatusOverdue, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		var notes, footer *string
		if err := rows.Scan(
			&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &inv.InvoiceDate, &inv.DueDate, &inv.Status,
			&inv.Subtotal, &inv.DiscountAmount, &inv.VATAmount, &inv.TotalAmount,
			&notes, &footer, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Notes = derefStr(notes)
		inv.FooterText = derefStr(footer)
		list = append(list, &inv)
	}
	return list, rows.Err()
}

// UpdateStatus transiciona status de from a to. Si la fila ya no está en
// from el update no afecta nada: la transición queda unidireccional e
// idempotente a nivel de SQL.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, invoiceID, from, to string) error {
	query := `UPDATE invoices SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`
	_, err := r.q.Exec(ctx, query, invoiceID, from, to)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return nil
}
