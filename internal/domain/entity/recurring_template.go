package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gross-ict/billing-engine/internal/domain"
)

// Interval frecuencia de generación de una plantilla recurrente.
type Interval string

const (
	IntervalWeekly    Interval = "weekly"
	IntervalMonthly   Interval = "monthly"
	IntervalQuarterly Interval = "quarterly"
	IntervalYearly    Interval = "yearly"
)

// Advance devuelve from avanzado exactamente un paso del intervalo.
// Un intervalo no reconocido avanza un mes (comportamiento histórico del producto).
func (i Interval) Advance(from time.Time) time.Time {
	switch i {
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return from.AddDate(0, 1, 0)
	case IntervalQuarterly:
		return from.AddDate(0, 3, 0)
	case IntervalYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// RecurringTemplate es el plano desde el que se materializan facturas.
// El CRUD de plantillas vive fuera de este motor; aquí solo se leen las
// plantillas vencidas y se mutan last_run_date / next_run_date.
type RecurringTemplate struct {
	ID             string
	CustomerID     string
	Name           string
	Interval       Interval
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	VATAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	Notes          string
	FooterText     string
	IsActive       bool
	LastRunDate    *time.Time
	NextRunDate    time.Time
	Items          []TemplateItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TemplateItem línea de la plantilla, copiada literal a la factura al materializar.
// Los montos vienen pre-validados por el editor de plantillas: el motor no recalcula precios.
type TemplateItem struct {
	ID          string
	TemplateID  string
	Position    int
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// Validate verifica la integridad estructural de la plantilla antes de
// materializar. Un problema aquí es un error por ítem (ErrTemplateInvalid),
// no aborta el lote.
func (t *RecurringTemplate) Validate() error {
	if len(t.Items) == 0 {
		return fmt.Errorf("%w: plantilla %s sin líneas", domain.ErrTemplateInvalid, t.ID)
	}
	if t.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: plantilla %s con total negativo", domain.ErrTemplateInvalid, t.ID)
	}
	for _, item := range t.Items {
		if item.Description == "" {
			return fmt.Errorf("%w: plantilla %s con línea sin descripción", domain.ErrTemplateInvalid, t.ID)
		}
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("%w: plantilla %s con cantidad no positiva", domain.ErrTemplateInvalid, t.ID)
		}
	}
	return nil
}
