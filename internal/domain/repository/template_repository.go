package repository

import (
	"context"
	"time"

	"github.com/gross-ict/billing-engine/internal/domain/entity"
)

// TemplateRepository define el puerto de persistencia para plantillas recurrentes.
// El motor solo lee plantillas vencidas y avanza su calendario; el CRUD vive fuera.
type TemplateRepository interface {
	// ListDue devuelve las plantillas activas con next_run_date <= now,
	// con sus líneas cargadas.
	ListDue(ctx context.Context, now time.Time) ([]*entity.RecurringTemplate, error)
	// Advance fija last_run_date y next_run_date tras una materialización
	// exitosa. next_run_date solo puede avanzar, nunca retroceder; un intento
	// de retroceso devuelve domain.ErrConflict.
	Advance(ctx context.Context, templateID string, lastRun, nextRun time.Time) error
}
