package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resultado de un intento de recordatorio.
const (
	ReminderStatusSent   = "sent"
	ReminderStatusFailed = "failed"
)

// ReminderLogEntry es una fila del libro de recordatorios: un registro
// append-only por intento (exitoso o no). Es a la vez auditoría y libro de
// deduplicación: para un (InvoiceID, ReminderType) existe como máximo una
// fila con status sent. Los intentos fallidos pueden repetirse y no
// bloquean el reintento.
type ReminderLogEntry struct {
	ID            string
	InvoiceID     string
	CustomerID    string
	ReminderType  string // 1st, 2nd, final
	EmailTo       string
	Subject       string
	Status        string // sent, failed
	MessageID     string // Message-ID del proveedor (vacío si falló)
	ErrorMessage  string // texto del error (vacío si se envió)
	InvoiceAmount decimal.Decimal // snapshot al momento del intento
	DaysOverdue   int             // snapshot al momento del intento
	CreatedAt     time.Time
}
