package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gross-ict/billing-engine/internal/domain"
	"github.com/gross-ict/billing-engine/internal/domain/entity"
	"github.com/gross-ict/billing-engine/internal/domain/repository"
)

var _ repository.TemplateRepository = (*TemplateRepo)(nil)

// TemplateRepo implementación de TemplateRepository (usable con pool o tx).
type TemplateRepo struct {
	q Querier
}

// NewTemplateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTemplateRepository(q Querier) *TemplateRepo {
	return &TemplateRepo{q: q}
}

// ListDue devuelve las plantillas activas vencidas con sus líneas.
func (r *TemplateRepo) ListDue(ctx context.Context, now time.Time) ([]*entity.RecurringTemplate, error) {
	query := `
		SELECT id, customer_id, name, frequency, subtotal, discount_amount, vat_amount, total_amount,
		       notes, footer_text, is_active, last_run_date, next_run_date, created_at, updated_at
		FROM recurring_templates
		WHERE is_active = true AND next_run_date <= $1
		ORDER BY next_run_date`
	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due templates: %w", err)
	}
	defer rows.Close()

	var list []*entity.RecurringTemplate
	for rows.Next() {
		var t entity.RecurringTemplate
		var interval string
		var notes, footer *string
		if err := rows.Scan(
			&t.ID, &t.CustomerID, &t.Name, &interval,
			&t.Subtotal, &t.DiscountAmount, &t.VATAmount, &t.TotalAmount,
			&notes, &footer, &t.IsActive, &t.LastRunDate, &t.NextRunDate,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Interval = entity.Interval(interval)
		t.Notes = derefStr(notes)
		t.FooterText = derefStr(footer)
		list = append(list, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range list {
		items, err := r.itemsByTemplateID(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Items = items
	}
	return list, nil
}

func (r *TemplateRepo) itemsByTemplateID(ctx context.Context, templateID string) ([]entity.TemplateItem, error) {
	query := `
		SELECT id, template_id, position, description, quantity, unit,
		       unit_price, vat_rate, discount, total
		FROM recurring_template_items
		WHERE template_id = $1
		ORDER BY position`
	rows, err := r.q.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("list template items: %w", err)
	}
	defer rows.Close()

	var items []entity.TemplateItem
	for rows.Next() {
		var it entity.TemplateItem
		if err := rows.Scan(
			&it.ID, &it.TemplateID, &it.Position, &it.Description, &it.Quantity, &it.Unit,
			&it.UnitPrice, &it.VATRate, &it.Discount, &it.Total,
		); err != nil {
			return nil, fmt.Errorf("scan template item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Advance fija last_run_date y next_run_date tras una materialización
// exitosa. La condición next_run_date < $3 garantiza en SQL que el
// calendario solo avanza; si otro proceso ya lo avanzó más allá, devuelve
// domain.ErrConflict en lugar de retrocederlo.
func (r *TemplateRepo) Advance(ctx context.Context, templateID string, lastRun, nextRun time.Time) error {
	query := `
		UPDATE recurring_templates
		SET last_run_date = $2, next_run_date = $3, updated_at = $2
		WHERE id = $1 AND next_run_date < $3`
	tag, err := r.q.Exec(ctx, query, templateID, lastRun, nextRun)
	if err != nil {
		return fmt.Errorf("advance template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("plantilla %s no avanzó (inexistente o next_run_date ya posterior): %w",
			templateID, domain.ErrConflict)
	}
	return nil
}
