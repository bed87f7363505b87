package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gross-ict/billing-engine/internal/domain/entity"
	domreminder "github.com/gross-ict/billing-engine/internal/domain/reminder"
	"github.com/gross-ict/billing-engine/internal/domain/repository"
	"github.com/gross-ict/billing-engine/pkg/clock"
	"github.com/gross-ict/billing-engine/pkg/logger"
)

// EngineConfig parámetros del motor de recordatorios.
type EngineConfig struct {
	ItemTimeout time.Duration // timeout por factura dentro de un pase
}

// Result contadores de un pase de recordatorios.
type Result struct {
	Sent    int
	Skipped int
	Failed  int
	Total   int
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
)

// Engine escanea facturas vencidas y envía como máximo un recordatorio por
// nivel por factura, usando el libro de recordatorios como deduplicación.
// En el primer envío de nivel 1st escala la factura de sent a overdue.
type Engine struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	ledger    repository.ReminderLogRepository
	sender    NotificationSender
	schedule  domreminder.Schedule
	clk       clock.Clock
	log       *logger.Logger
	cfg       EngineConfig
}

// NewEngine construye el motor. El sender llega inyectado por el bootstrap
// del proceso, nunca como singleton perezoso.
func NewEngine(
	invoices repository.InvoiceRepository,
	customers repository.CustomerRepository,
	ledger repository.ReminderLogRepository,
	sender NotificationSender,
	schedule domreminder.Schedule,
	clk clock.Clock,
	log *logger.Logger,
	cfg EngineConfig,
) *Engine {
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 30 * time.Second
	}
	return &Engine{
		invoices:  invoices,
		customers: customers,
		ledger:    ledger,
		sender:    sender,
		schedule:  schedule,
		clk:       clk,
		log:       log,
		cfg:       cfg,
	}
}

// ProcessOverdue procesa todas las facturas candidatas: status sent u
// overdue con due_date < now. Un fallo en una factura (cliente ausente,
// entrega fallida, timeout) se registra y no interrumpe el lote. Solo un
// fallo del store al listar aborta el pase completo.
func (e *Engine) ProcessOverdue(ctx context.Context) (Result, error) {
	now := e.clk.Now()

	overdue, err := e.invoices.ListOverdue(ctx, now)
	if err != nil {
		return Result{}, fmt.Errorf("listar facturas vencidas: %w", err)
	}

	e.log.Info().Int("overdue", len(overdue)).Msg("facturas vencidas encontradas")

	res := Result{Total: len(overdue)}
	for _, inv := range overdue {
		itemCtx, cancel := context.WithTimeout(ctx, e.cfg.ItemTimeout)
		out, err := e.processOne(itemCtx, inv, now)
		cancel()

		switch {
		case err != nil:
			res.Failed++
			e.log.Error().Err(err).
				Str("invoice_id", inv.ID).
				Str("invoice_number", inv.InvoiceNumber).
				Msg("fallo al procesar recordatorio")
		case out == outcomeSent:
			res.Sent++
		default:
			res.Skipped++
		}
	}

	e.log.Info().
		Int("sent", res.Sent).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Int("total", res.Total).
		Msg("pase de recordatorios completado")
	return res, nil
}

func (e *Engine) processOne(ctx context.Context, inv *entity.Invoice, now time.Time) (outcome, error) {
	customer, err := e.customers.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("consultar cliente %s: %w", inv.CustomerID, err)
	}
	if customer == nil {
		e.log.Warn().
			Str("invoice_id", inv.ID).
			Str("customer_id", inv.CustomerID).
			Msg("cliente inexistente, recordatorio omitido")
		return outcomeSkipped, nil
	}

	days := domreminder.DaysOverdue(inv.DueDate, now)

	sentRaw, err := e.ledger.SentTiers(ctx, inv.ID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("consultar libro de recordatorios: %w", err)
	}
	sent := make(map[domreminder.Tier]bool, len(sentRaw))
	for tier := range sentRaw {
		sent[domreminder.Tier(tier)] = true
	}

	stage, ok := e.schedule.DueStage(days, sent)
	if !ok {
		return outcomeSkipped, nil
	}

	entry := &entity.ReminderLogEntry{
		ID:            uuid.New().String(),
		InvoiceID:     inv.ID,
		CustomerID:    inv.CustomerID,
		ReminderType:  string(stage.Tier),
		EmailTo:       customer.Email,
		Subject:       stage.Subject,
		InvoiceAmount: inv.TotalAmount,
		DaysOverdue:   days,
		CreatedAt:     now,
	}

	messageID, sendErr := e.sender.SendReminder(ctx, ReminderMail{
		To:            customer.Email,
		CustomerName:  customer.Name,
		Language:      customer.Language,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Amount:        inv.TotalAmount,
		Tier:          stage.Tier,
		Subject:       stage.Subject,
		Message:       stage.Message,
	})
	if sendErr != nil {
		// Intento fallido: fila failed en el libro. No consume el nivel,
		// el siguiente pase reintenta mientras siga dentro de la ventana.
		entry.Status = entity.ReminderStatusFailed
		entry.ErrorMessage = sendErr.Error()
		if lerr := e.ledger.Create(ctx, entry); lerr != nil {
			e.log.Error().Err(lerr).
				Str("invoice_id", inv.ID).
				Msg("no se pudo registrar el intento fallido en el libro")
		}
		return outcomeSkipped, fmt.Errorf("enviar recordatorio %s: %w", stage.Tier, sendErr)
	}

	entry.Status = entity.ReminderStatusSent
	entry.MessageID = messageID
	if err := e.ledger.Create(ctx, entry); err != nil {
		// Correo entregado pero libro sin registrar: ventana de escritura
		// parcial asumida; dentro de la ventana de elegibilidad el siguiente
		// pase podría reenviar este nivel.
		return outcomeSkipped, fmt.Errorf("correo enviado pero falló el registro en el libro: %w", err)
	}

	// Primer recordatorio exitoso: sent → overdue, unidireccional e
	// idempotente (si ya está overdue el update no toca nada).
	if stage.Tier == domreminder.TierFirst && inv.Status == entity.InvoiceStatusSent {
		if err := e.invoices.UpdateStatus(ctx, inv.ID, entity.InvoiceStatusSent, entity.InvoiceStatusOverdue); err != nil {
			return outcomeSkipped, fmt.Errorf("recordatorio enviado pero falló la transición a overdue: %w", err)
		}
	}

	e.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("tier", string(stage.Tier)).
		Int("days_overdue", days).
		Str("message_id", messageID).
		Msg("recordatorio de pago enviado")
	return outcomeSent, nil
}
