package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una factura.
// Las transiciones son unidireccionales: draft → sent → overdue, y desde
// sent/overdue solo se sale hacia paid o cancelled (acción del usuario,
// fuera de este motor). El motor de recordatorios es el único que marca
// overdue, y solo desde sent.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice representa la cabecera de una factura.
type Invoice struct {
	ID             string
	InvoiceNumber  string // formato {año}-{secuencia}, ej. 2025-001; único y creciente por año
	CustomerID     string
	InvoiceDate    time.Time
	DueDate        time.Time
	Status         string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	VATAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	Notes          string
	FooterText     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
