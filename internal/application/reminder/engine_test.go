package reminder_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gross-ict/billing-engine/internal/application/reminder"
	"github.com/gross-ict/billing-engine/internal/domain/entity"
	domreminder "github.com/gross-ict/billing-engine/internal/domain/reminder"
	"github.com/gross-ict/billing-engine/pkg/clock"
	"github.com/gross-ict/billing-engine/pkg/logger"
)

// ── fakes en memoria ─────────────────────────────────────────────────────────

type fakeInvoiceStore struct {
	overdue []*entity.Invoice
	listErr error
	updates []string // "id:from->to"
}

func (f *fakeInvoiceStore) ListOverdue(context.Context, time.Time) ([]*entity.Invoice, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.overdue, nil
}

func (f *fakeInvoiceStore) UpdateStatus(_ context.Context, id, from, to string) error {
	f.updates = append(f.updates, fmt.Sprintf("%s:%s->%s", id, from, to))
	for _, inv := range f.overdue {
		if inv.ID == id && inv.Status == from {
			inv.Status = to
		}
	}
	return nil
}

func (f *fakeInvoiceStore) Create(context.Context, *entity.Invoice) error         { return nil }
func (f *fakeInvoiceStore) CreateItem(context.Context, *entity.InvoiceItem) error { return nil }
func (f *fakeInvoiceStore) MaxNumberForYear(context.Context, int) (string, error) { return "", nil }

type fakeCustomerRepo struct {
	customers map[string]*entity.Customer
	err       error
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.customers[id], nil
}

type fakeLedger struct {
	entries   []*entity.ReminderLogEntry
	createErr error
	sentErr   error
}

func (f *fakeLedger) Create(_ context.Context, entry *entity.ReminderLogEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedger) SentTiers(_ context.Context, invoiceID string) (map[string]bool, error) {
	if f.sentErr != nil {
		return nil, f.sentErr
	}
	tiers := make(map[string]bool)
	for _, e := range f.entries {
		if e.InvoiceID == invoiceID && e.Status == entity.ReminderStatusSent {
			tiers[e.ReminderType] = true
		}
	}
	return tiers, nil
}

type fakeSender struct {
	failFor map[string]bool // direcciones cuyo envío falla
	sent    []reminder.ReminderMail
	seq     int
}

func (f *fakeSender) SendReminder(_ context.Context, m reminder.ReminderMail) (string, error) {
	if f.failFor[m.To] {
		return "", errors.New("smtp: connection refused")
	}
	f.seq++
	f.sent = append(f.sent, m)
	return fmt.Sprintf("<msg-%d@test>", f.seq), nil
}

func overdueInvoice(id, customerID string, dueDate time.Time, status string) *entity.Invoice {
	return &entity.Invoice{
		ID:            id,
		InvoiceNumber: "2025-0" + id[len(id)-2:],
		CustomerID:    customerID,
		InvoiceDate:   dueDate.AddDate(0, 0, -30),
		DueDate:       dueDate,
		Status:        status,
		TotalAmount:   decimal.RequireFromString("250.00"),
	}
}

type engineFixture struct {
	invoices  *fakeInvoiceStore
	customers *fakeCustomerRepo
	ledger    *fakeLedger
	sender    *fakeSender
	engine    *reminder.Engine
}

func newFixture(now time.Time, overdue ...*entity.Invoice) *engineFixture {
	f := &engineFixture{
		invoices: &fakeInvoiceStore{overdue: overdue},
		customers: &fakeCustomerRepo{customers: map[string]*entity.Customer{
			"cust-1": {ID: "cust-1", Name: "Muster AG", Email: "billing@muster.ch", Language: "de"},
		}},
		ledger: &fakeLedger{},
		sender: &fakeSender{},
	}
	f.engine = reminder.NewEngine(
		f.invoices, f.customers, f.ledger, f.sender,
		domreminder.NewSchedule(2),
		clock.Fixed{Instant: now},
		logger.Nop(),
		reminder.EngineConfig{},
	)
	return f
}

// ── tests ────────────────────────────────────────────────────────────────────

// Factura vencida el 2025-01-01 (status sent), escaneada el 2025-01-09
// (8 días): recordatorio 1st enviado, la factura pasa a overdue y queda una
// fila sent en el libro con los snapshots del momento.
func TestProcessOverdue_PrimerRecordatorio(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusSent))

	res, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reminder.Result{Sent: 1, Skipped: 0, Failed: 0, Total: 1}, res)

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, string(domreminder.TierFirst), entry.ReminderType)
	assert.Equal(t, entity.ReminderStatusSent, entry.Status)
	assert.Equal(t, "<msg-1@test>", entry.MessageID)
	assert.Equal(t, "billing@muster.ch", entry.EmailTo)
	assert.Equal(t, 8, entry.DaysOverdue, "snapshot de los días vencidos al momento del envío")
	assert.True(t, entry.InvoiceAmount.Equal(decimal.RequireFromString("250.00")))

	assert.Equal(t, []string{"inv-01:sent->overdue"}, f.invoices.updates,
		"el primer 1st exitoso escala la factura a overdue")
}

// Re-escanear el mismo día no produce una segunda fila sent: el libro
// deduplica por (factura, nivel).
func TestProcessOverdue_IdempotenteMismoDia(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusSent))

	_, err := f.engine.ProcessOverdue(context.Background())
	require.NoError(t, err)

	res, err := f.engine.ProcessOverdue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, reminder.Result{Sent: 0, Skipped: 1, Failed: 0, Total: 1}, res)
	assert.Len(t, f.ledger.entries, 1, "N pasadas dentro de la ventana = una sola fila sent")
	assert.Len(t, f.invoices.updates, 1, "la transición a overdue no se repite")
}

// 15 días de atraso sin recordatorios previos: se envía el 1st (el nivel
// pendiente más temprano), no el 2nd, aunque el umbral del 2nd también se cumpla.
func TestProcessOverdue_NivelSaltadoRecibeElPrimero(t *testing.T) {
	now := time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusSent))

	res, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, string(domreminder.TierFirst), f.ledger.entries[0].ReminderType)
}

// Con el 1st ya enviado y 14 días de atraso se escala al 2nd, sin tocar el
// status (solo el 1st transiciona la factura).
func TestProcessOverdue_EscalaAlSegundoNivel(t *testing.T) {
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusOverdue))
	f.ledger.entries = append(f.ledger.entries, &entity.ReminderLogEntry{
		InvoiceID:    "inv-01",
		ReminderType: string(domreminder.TierFirst),
		Status:       entity.ReminderStatusSent,
	})

	res, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, f.ledger.entries, 2)
	assert.Equal(t, string(domreminder.TierSecond), f.ledger.entries[1].ReminderType)
	assert.Empty(t, f.invoices.updates)
}

// Fuera de toda ventana de elegibilidad no se envía nada.
func TestProcessOverdue_FueraDeVentanaOmite(t *testing.T) {
	now := time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC) // 11 días: entre ventanas
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusOverdue))

	res, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reminder.Result{Sent: 0, Skipped: 1, Failed: 0, Total: 1}, res)
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.sender.sent)
}

// Un envío fallido deja una fila failed con el error, no consume el nivel y
// se reintenta con éxito en el siguiente pase dentro de la ventana.
func TestProcessOverdue_FalloDeEnvioReintenta(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusSent))
	f.sender.failFor = map[string]bool{"billing@muster.ch": true}

	res, err := f.engine.ProcessOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reminder.Result{Sent: 0, Skipped: 0, Failed: 1, Total: 1}, res)

	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, entity.ReminderStatusFailed, f.ledger.entries[0].Status)
	assert.Contains(t, f.ledger.entries[0].ErrorMessage, "connection refused")
	assert.Empty(t, f.invoices.updates, "un fallo de entrega no transiciona la factura")

	// El proveedor se recupera: el siguiente pase envía el mismo nivel.
	f.sender.failFor = nil
	res, err = f.engine.ProcessOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, f.ledger.entries, 2)
	assert.Equal(t, entity.ReminderStatusSent, f.ledger.entries[1].Status)
}

// Cliente inexistente: ítem omitido, sin abortar el lote.
func TestProcessOverdue_ClienteAusenteOmite(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now,
		overdueInvoice("inv-01", "cust-fantasma", due, entity.InvoiceStatusSent),
		overdueInvoice("inv-02", "cust-1", due, entity.InvoiceStatusSent),
	)

	res, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reminder.Result{Sent: 1, Skipped: 1, Failed: 0, Total: 2}, res)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, "inv-02", f.ledger.entries[0].InvoiceID)
}

// Una entrega fallida en medio del lote no impide procesar el resto.
func TestProcessOverdue_AislamientoPorFactura(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now,
		overdueInvoice("inv-01", "cust-2", due, entity.InvoiceStatusSent),
		overdueInvoice("inv-02", "cust-1", due, entity.InvoiceStatusSent),
	)
	f.customers.customers["cust-2"] = &entity.Customer{
		ID: "cust-2", Name: "Beispiel GmbH", Email: "rebota@beispiel.ch",
	}
	f.sender.failFor = map[string]bool{"rebota@beispiel.ch": true}

	res, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reminder.Result{Sent: 1, Skipped: 0, Failed: 1, Total: 2}, res)
}

// Una factura ya overdue recibe su 1st pendiente sin intentar transición
// alguna (overdue nunca vuelve a sent, paid/cancelled nunca son candidatas).
func TestProcessOverdue_YaOverdueNoTransiciona(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusOverdue))

	res, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Empty(t, f.invoices.updates)
}

// Un fallo del store al listar aborta el pase completo.
func TestProcessOverdue_StoreNoDisponible(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	f := newFixture(now)
	f.invoices.listErr = errors.New("dial tcp: connection refused")

	_, err := f.engine.ProcessOverdue(context.Background())

	assert.Error(t, err)
}

// El correo sale con los datos estructurados del nivel y de la factura.
func TestProcessOverdue_DatosDelCorreo(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(now, overdueInvoice("inv-01", "cust-1", due, entity.InvoiceStatusSent))

	_, err := f.engine.ProcessOverdue(context.Background())

	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)
	m := f.sender.sent[0]
	assert.Equal(t, "billing@muster.ch", m.To)
	assert.Equal(t, "Muster AG", m.CustomerName)
	assert.Equal(t, domreminder.TierFirst, m.Tier)
	assert.Equal(t, "Freundliche Zahlungserinnerung", m.Subject)
	assert.NotEmpty(t, m.Message)
	assert.True(t, m.Amount.Equal(decimal.RequireFromString("250.00")))
}
