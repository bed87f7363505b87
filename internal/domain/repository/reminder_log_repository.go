package repository

import (
	"context"

	"github.com/gross-ict/billing-engine/internal/domain/entity"
)

// ReminderLogRepository define el puerto del libro de recordatorios.
// El libro es append-only: una fila por intento, nunca se actualiza ni borra.
type ReminderLogRepository interface {
	Create(ctx context.Context, entry *entity.ReminderLogEntry) error
	// SentTiers devuelve los niveles con al menos una fila status=sent para
	// la factura. Es la base de la deduplicación por (factura, nivel).
	SentTiers(ctx context.Context, invoiceID string) (map[string]bool, error)
}
