// Package scheduler contiene los dos disparadores periódicos del motor:
// facturación recurrente (cada hora) y recordatorios de pago (diario).
// Asume una sola instancia activa del proceso; el store relacional es la
// única fuente de verdad y de deduplicación, no hay elección de líder.
package scheduler

import (
	"context"
	"time"

	"github.com/gross-ict/billing-engine/internal/application/billing"
	"github.com/gross-ict/billing-engine/internal/application/reminder"
	"github.com/gross-ict/billing-engine/pkg/clock"
	"github.com/gross-ict/billing-engine/pkg/logger"
)

// Driver ejecuta un pase síncrono en cada tick: primero tras initialDelay,
// luego cada interval. Un pase corre hasta completarse antes de que el
// siguiente tick pueda dispararse, así el driver nunca se solapa consigo
// mismo.
type Driver struct {
	name         string
	initialDelay time.Duration
	interval     time.Duration
	run          func(ctx context.Context)
	log          *logger.Logger
	stop         chan struct{}
	done         chan struct{}
}

// NewBillingDriver construye el disparador de facturación recurrente.
// Dispara inmediatamente al arrancar el proceso: tras un downtime largo eso
// significa ponerse al día con todo el backlog de plantillas vencidas en el
// primer pase (comportamiento intencional de catch-up).
func NewBillingDriver(m *billing.Materializer, interval time.Duration, log *logger.Logger) *Driver {
	return newDriver("billing", 0, interval, log, func(ctx context.Context) {
		if _, err := m.ProcessDue(ctx); err != nil {
			log.Error().Err(err).Msg("pase de facturación recurrente abortado")
		}
	})
}

// NewReminderDriver construye el disparador de recordatorios: primer pase a
// la próxima hour:00 local (hoy si aún no pasó, si no mañana), luego cada
// 24 horas.
func NewReminderDriver(e *reminder.Engine, hour int, clk clock.Clock, log *logger.Logger) *Driver {
	now := clk.Now()
	delay := NextRunAt(now, hour).Sub(now)
	return newDriver("reminders", delay, 24*time.Hour, log, func(ctx context.Context) {
		if _, err := e.ProcessOverdue(ctx); err != nil {
			log.Error().Err(err).Msg("pase de recordatorios abortado")
		}
	})
}

func newDriver(name string, initialDelay, interval time.Duration, log *logger.Logger, run func(ctx context.Context)) *Driver {
	return &Driver{
		name:         name,
		initialDelay: initialDelay,
		interval:     interval,
		run:          run,
		log:          log,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// NextRunAt devuelve el próximo instante en que el reloj local marca
// hour:00:00: hoy si aún no pasó, si no mañana.
func NextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start lanza el loop del driver en su propia goroutine.
func (d *Driver) Start(ctx context.Context) {
	d.log.Info().
		Str("driver", d.name).
		Dur("initial_delay", d.initialDelay).
		Dur("interval", d.interval).
		Msg("driver iniciado")

	go d.loop(ctx)
}

// Stop detiene el driver y espera a que termine el pase en curso.
func (d *Driver) Stop() {
	close(d.stop)
	<-d.done
	d.log.Info().Str("driver", d.name).Msg("driver detenido")
}

func (d *Driver) loop(ctx context.Context) {
	defer close(d.done)

	timer := time.NewTimer(d.initialDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		d.run(ctx)
	case <-d.stop:
		return
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.run(ctx)
		case <-d.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
