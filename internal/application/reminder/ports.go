package reminder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domreminder "github.com/gross-ict/billing-engine/internal/domain/reminder"
)

// ReminderMail parámetros estructurados del correo de recordatorio.
// El render del texto final (idioma, plantillas HTML) es responsabilidad
// del sender; el motor solo entrega los datos.
type ReminderMail struct {
	To            string
	CustomerName  string
	Language      string
	InvoiceNumber string
	InvoiceDate   time.Time
	DueDate       time.Time
	Amount        decimal.Decimal
	Tier          domreminder.Tier
	Subject       string
	Message       string
}

// NotificationSender es el colaborador de entrega. Devuelve el Message-ID
// del proveedor como recibo, o error si la entrega falló.
type NotificationSender interface {
	SendReminder(ctx context.Context, mail ReminderMail) (messageID string, err error)
}
