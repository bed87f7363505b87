package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appbilling "github.com/gross-ict/billing-engine/internal/application/billing"
	appreminder "github.com/gross-ict/billing-engine/internal/application/reminder"
	domreminder "github.com/gross-ict/billing-engine/internal/domain/reminder"
	"github.com/gross-ict/billing-engine/internal/infrastructure/mail"
	"github.com/gross-ict/billing-engine/internal/infrastructure/postgres"
	"github.com/gross-ict/billing-engine/internal/scheduler"
	"github.com/gross-ict/billing-engine/pkg/clock"
	"github.com/gross-ict/billing-engine/pkg/config"
	"github.com/gross-ict/billing-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando motor de facturación y recordatorios")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	templateRepo := postgres.NewTemplateRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	ledgerRepo := postgres.NewReminderLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	clk := clock.System{}

	materializer := appbilling.NewMaterializer(
		txRunner, templateRepo, clk,
		log, appbilling.MaterializerConfig{
			DueDays:     cfg.Scheduler.InvoiceDueDays,
			ItemTimeout: cfg.Scheduler.ItemTimeout,
		},
	)

	sender := mail.NewSMTPSender(cfg.SMTP)
	engine := appreminder.NewEngine(
		invoiceRepo, customerRepo, ledgerRepo, sender,
		domreminder.NewSchedule(cfg.Scheduler.ToleranceDays),
		clk, log, appreminder.EngineConfig{
			ItemTimeout: cfg.Scheduler.ItemTimeout,
		},
	)

	billingDriver := scheduler.NewBillingDriver(materializer, cfg.Scheduler.BillingInterval, log)
	reminderDriver := scheduler.NewReminderDriver(engine, cfg.Scheduler.ReminderHour, clk, log)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	billingDriver.Start(runCtx)
	reminderDriver.Start(runCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, deteniendo drivers...")

	cancel()
	billingDriver.Stop()
	reminderDriver.Stop()

	log.Info().Msg("motor detenido")
}
