package postgres

import (
	"context"
	"fmt"

	"github.com/gross-ict/billing-engine/internal/domain"
	"github.com/gross-ict/billing-engine/internal/domain/entity"
	"github.com/gross-ict/billing-engine/internal/domain/repository"
)

var _ repository.ReminderLogRepository = (*ReminderLogRepo)(nil)

// ReminderLogRepo implementación de ReminderLogRepository (usable con pool o tx).
type ReminderLogRepo struct {
	q Querier
}

// NewReminderLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReminderLogRepository(q Querier) *ReminderLogRepo {
	return &ReminderLogRepo{q: q}
}

// Create agrega una fila al libro (append-only). El índice único parcial
// sobre (invoice_id, reminder_type) WHERE status = 'sent' respalda en SQL
// la regla de como máximo un envío exitoso por nivel; una violación llega
// como domain.ErrDuplicate.
func (r *ReminderLogRepo) Create(ctx context.Context, entry *entity.ReminderLogEntry) error {
	query := `
		INSERT INTO payment_reminder_log (id, invoice_id, customer_id, reminder_type, email_to,
		                                  subject, status, message_id, error_message,
		                                  invoice_amount, days_overdue, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.InvoiceID, entry.CustomerID, entry.ReminderType, entry.EmailTo,
		entry.Subject, entry.Status, nullIfEmpty(entry.MessageID), nullIfEmpty(entry.ErrorMessage),
		entry.InvoiceAmount, entry.DaysOverdue, entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("recordatorio %s ya registrado como enviado para la factura %s: %w",
				entry.ReminderType, entry.InvoiceID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert reminder log: %w", err)
	}
	return nil
}

// SentTiers devuelve los niveles con al menos un envío exitoso para la factura.
func (r *ReminderLogRepo) SentTiers(ctx context.Context, invoiceID string) (map[string]bool, error) {
	query := `
		SELECT DISTINCT reminder_type FROM payment_reminder_log
		WHERE invoice_id = $1 AND status = $2`
	rows, err := r.q.Query(ctx, query, invoiceID, entity.ReminderStatusSent)
	if err != nil {
		return nil, fmt.Errorf("list sent tiers: %w", err)
	}
	defer rows.Close()

	tiers := make(map[string]bool)
	for rows.Next() {
		var tier string
		if err := rows.Scan(&tier); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers[tier] = true
	}
	return tiers, rows.Err()
}
