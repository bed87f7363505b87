package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gross-ict/billing-engine/internal/domain"
	"github.com/gross-ict/billing-engine/internal/domain/entity"
	"github.com/gross-ict/billing-engine/internal/domain/repository"
	"github.com/gross-ict/billing-engine/pkg/clock"
	"github.com/gross-ict/billing-engine/pkg/logger"
)

// Reintentos cuando otro proceso toma el mismo consecutivo (violación del
// índice único sobre invoice_number).
const maxNumberAttempts = 3

// MaterializerConfig parámetros del generador de facturas recurrentes.
type MaterializerConfig struct {
	DueDays     int           // due_date = invoice_date + DueDays
	ItemTimeout time.Duration // timeout por plantilla dentro de un pase
}

// Result contadores de un pase de materialización.
type Result struct {
	Processed int
	Failed    int
	Total     int
}

// Materializer convierte plantillas recurrentes vencidas en facturas
// persistidas y avanza el calendario de cada plantilla.
type Materializer struct {
	txRunner  InvoicingTxRunner
	templates repository.TemplateRepository
	clk       clock.Clock
	log       *logger.Logger
	cfg       MaterializerConfig
}

// NewMaterializer construye el caso de uso.
func NewMaterializer(
	txRunner InvoicingTxRunner,
	templates repository.TemplateRepository,
	clk clock.Clock,
	log *logger.Logger,
	cfg MaterializerConfig,
) *Materializer {
	if cfg.DueDays <= 0 {
		cfg.DueDays = 30
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 30 * time.Second
	}
	return &Materializer{
		txRunner:  txRunner,
		templates: templates,
		clk:       clk,
		log:       log,
		cfg:       cfg,
	}
}

// ProcessDue procesa todas las plantillas activas con next_run_date <= now.
// Un fallo en una plantilla se registra y no interrumpe el resto del lote;
// la plantilla fallida queda vencida y se reintenta en el siguiente pase.
// Solo un fallo del store al listar aborta el pase completo.
func (m *Materializer) ProcessDue(ctx context.Context) (Result, error) {
	now := m.clk.Now()

	due, err := m.templates.ListDue(ctx, now)
	if err != nil {
		return Result{}, fmt.Errorf("listar plantillas vencidas: %w", err)
	}

	m.log.Info().Int("due", len(due)).Msg("plantillas recurrentes vencidas encontradas")

	res := Result{Total: len(due)}
	for _, tmpl := range due {
		itemCtx, cancel := context.WithTimeout(ctx, m.cfg.ItemTimeout)
		number, err := m.materialize(itemCtx, tmpl, now)
		cancel()

		if err != nil {
			res.Failed++
			m.log.Error().Err(err).
				Str("template_id", tmpl.ID).
				Msg("fallo al materializar plantilla recurrente")
			continue
		}
		res.Processed++
		m.log.Info().
			Str("template_id", tmpl.ID).
			Str("invoice_number", number).
			Msg("factura generada desde plantilla recurrente")
	}

	m.log.Info().
		Int("processed", res.Processed).
		Int("failed", res.Failed).
		Int("total", res.Total).
		Msg("pase de facturación recurrente completado")
	return res, nil
}

// materialize crea la factura (cabecera + líneas, copiadas literal de la
// plantilla) en una transacción y, como último paso y con la factura ya
// confirmada, avanza el calendario de la plantilla. Si el avance falla la
// plantilla sigue vencida y el siguiente pase la reintenta; esa ventana de
// escritura parcial se minimiza ordenando así los pasos.
func (m *Materializer) materialize(ctx context.Context, tmpl *entity.RecurringTemplate, now time.Time) (string, error) {
	if err := tmpl.Validate(); err != nil {
		return "", err
	}

	invoiceID := uuid.New().String()
	var number string

	var lastErr error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		lastErr = m.txRunner.RunInvoicing(ctx, func(invoices repository.InvoiceRepository) error {
			last, err := invoices.MaxNumberForYear(ctx, now.Year())
			if err != nil {
				return fmt.Errorf("leer consecutivo máximo: %w", err)
			}
			number, err = NextInvoiceNumber(last, now.Year())
			if err != nil {
				return err
			}

			inv := &entity.Invoice{
				ID:            invoiceID,
				InvoiceNumber: number,
				CustomerID:    tmpl.CustomerID,
				InvoiceDate:   now,
				DueDate:       now.AddDate(0, 0, m.cfg.DueDays),
				Status:        entity.InvoiceStatusDraft,
				// Montos copiados literal: la plantilla llega pre-validada
				// por su editor, el motor no recalcula precios.
				Subtotal:       tmpl.Subtotal,
				DiscountAmount: tmpl.DiscountAmount,
				VATAmount:      tmpl.VATAmount,
				TotalAmount:    tmpl.TotalAmount,
				Notes:          tmpl.Notes,
				FooterText:     tmpl.FooterText,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := invoices.Create(ctx, inv); err != nil {
				return err
			}

			for i, item := range tmpl.Items {
				position := item.Position
				if position == 0 {
					position = i + 1
				}
				line := &entity.InvoiceItem{
					ID:          uuid.New().String(),
					InvoiceID:   invoiceID,
					Position:    position,
					Description: item.Description,
					Quantity:    item.Quantity,
					Unit:        item.Unit,
					UnitPrice:   item.UnitPrice,
					VATRate:     item.VATRate,
					Discount:    item.Discount,
					Total:       item.Total,
				}
				if err := invoices.CreateItem(ctx, line); err != nil {
					return fmt.Errorf("insertar línea %d: %w", position, err)
				}
			}
			return nil
		})

		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, domain.ErrDuplicate) {
			return "", lastErr
		}
		// Otro proceso tomó el consecutivo entre la lectura y el insert;
		// la tx hizo rollback y se reintenta leyendo el nuevo máximo.
		m.log.Warn().
			Str("template_id", tmpl.ID).
			Str("invoice_number", number).
			Int("attempt", attempt).
			Msg("consecutivo de factura en conflicto, reintentando")
	}
	if lastErr != nil {
		return "", fmt.Errorf("numeración de factura agotó %d intentos: %w", maxNumberAttempts, lastErr)
	}

	nextRun := tmpl.Interval.Advance(tmpl.NextRunDate)
	if err := m.templates.Advance(ctx, tmpl.ID, now, nextRun); err != nil {
		return "", fmt.Errorf("avanzar calendario de plantilla (factura %s ya creada): %w", number, err)
	}
	return number, nil
}
