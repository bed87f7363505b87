package reminder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gross-ict/billing-engine/internal/domain/reminder"
)

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 8, reminder.DaysOverdue(due, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, reminder.DaysOverdue(due, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
		"el mismo día del vencimiento aún no cuenta como día vencido")
	assert.Negative(t, reminder.DaysOverdue(due, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)),
		"antes del vencimiento los días deben ser negativos")

	// Horas parciales se truncan: 7 días y 23 horas siguen siendo 7 días.
	assert.Equal(t, 7, reminder.DaysOverdue(due, time.Date(2025, 1, 8, 23, 0, 0, 0, time.UTC)))
}

func TestDueStage_PrimerNivelEnVentana(t *testing.T) {
	s := reminder.NewSchedule(2)

	st, ok := s.DueStage(7, nil)
	require.True(t, ok)
	assert.Equal(t, reminder.TierFirst, st.Tier)

	st, ok = s.DueStage(8, nil)
	require.True(t, ok, "la tolerancia de 2 días debe cubrir el día siguiente al umbral")
	assert.Equal(t, reminder.TierFirst, st.Tier)
}

func TestDueStage_FueraDeVentanaNoEnvia(t *testing.T) {
	s := reminder.NewSchedule(2)

	cases := []int{0, 3, 6, 9, 12, 13, 17, 20, 24}
	for _, days := range cases {
		_, ok := s.DueStage(days, nil)
		assert.Falsef(t, ok, "con %d días vencidos ningún nivel está en ventana", days)
	}
}

// Con 15 días de atraso y ningún recordatorio previo, el motor envía el 1st
// (el nivel pendiente más temprano), no el 2nd, aunque el umbral del 2nd
// también esté alcanzado.
func TestDueStage_NivelSaltadoRecibeElMasTemprano(t *testing.T) {
	s := reminder.NewSchedule(2)

	st, ok := s.DueStage(15, nil)
	require.True(t, ok)
	assert.Equal(t, reminder.TierFirst, st.Tier)
}

func TestDueStage_EscalamientoNormal(t *testing.T) {
	s := reminder.NewSchedule(2)

	st, ok := s.DueStage(14, map[reminder.Tier]bool{reminder.TierFirst: true})
	require.True(t, ok)
	assert.Equal(t, reminder.TierSecond, st.Tier)

	st, ok = s.DueStage(21, map[reminder.Tier]bool{
		reminder.TierFirst:  true,
		reminder.TierSecond: true,
	})
	require.True(t, ok)
	assert.Equal(t, reminder.TierFinal, st.Tier)
}

// Re-escanear dentro de la misma ventana con el nivel ya enviado no produce
// un nuevo envío: el libro de recordatorios actúa como deduplicación.
func TestDueStage_IdempotenteDentroDeVentana(t *testing.T) {
	s := reminder.NewSchedule(2)

	_, ok := s.DueStage(8, map[reminder.Tier]bool{reminder.TierFirst: true})
	assert.False(t, ok, "el 1st ya fue enviado y el 2nd aún no alcanza su umbral")
}

func TestDueStage_TodoEnviadoNoRepite(t *testing.T) {
	s := reminder.NewSchedule(2)

	_, ok := s.DueStage(22, map[reminder.Tier]bool{
		reminder.TierFirst:  true,
		reminder.TierSecond: true,
		reminder.TierFinal:  true,
	})
	assert.False(t, ok)
}

func TestDueStage_ToleranciaConfigurable(t *testing.T) {
	// Con tolerancia 5 la ventana del 1st cubre [7, 12).
	s := reminder.NewSchedule(5)

	st, ok := s.DueStage(11, nil)
	require.True(t, ok)
	assert.Equal(t, reminder.TierFirst, st.Tier)

	_, ok = s.DueStage(12, nil)
	assert.False(t, ok)
}

func TestNewSchedule_UmbralesDelProducto(t *testing.T) {
	s := reminder.NewSchedule(2)
	stages := s.Stages()

	require.Len(t, stages, 3)
	assert.Equal(t, 7, stages[0].ThresholdDays)
	assert.Equal(t, 14, stages[1].ThresholdDays)
	assert.Equal(t, 21, stages[2].ThresholdDays)
	assert.NotEmpty(t, stages[0].Subject)
	assert.NotEmpty(t, stages[2].Message)
}
