package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gross-ict/billing-engine/internal/scheduler"
)

func TestNextRunAt(t *testing.T) {
	loc := time.UTC

	t.Run("antes de la hora corre hoy", func(t *testing.T) {
		now := time.Date(2025, 1, 10, 7, 30, 0, 0, loc)
		got := scheduler.NextRunAt(now, 9)
		assert.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, loc), got)
	})

	t.Run("exactamente en la hora corre mañana", func(t *testing.T) {
		now := time.Date(2025, 1, 10, 9, 0, 0, 0, loc)
		got := scheduler.NextRunAt(now, 9)
		assert.Equal(t, time.Date(2025, 1, 11, 9, 0, 0, 0, loc), got)
	})

	t.Run("después de la hora corre mañana", func(t *testing.T) {
		now := time.Date(2025, 1, 10, 14, 45, 0, 0, loc)
		got := scheduler.NextRunAt(now, 9)
		assert.Equal(t, time.Date(2025, 1, 11, 9, 0, 0, 0, loc), got)
	})

	t.Run("respeta la zona horaria local", func(t *testing.T) {
		zurich, err := time.LoadLocation("Europe/Zurich")
		if err != nil {
			t.Skip("zona horaria no disponible")
		}
		now := time.Date(2025, 6, 1, 8, 0, 0, 0, zurich)
		got := scheduler.NextRunAt(now, 9)
		assert.Equal(t, zurich, got.Location())
		assert.Equal(t, 9, got.Hour())
	})
}
