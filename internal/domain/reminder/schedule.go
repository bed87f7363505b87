// Package reminder contiene la lógica pura de escalamiento de recordatorios
// de pago: niveles, umbrales de días vencidos y la ventana de elegibilidad.
// No toca almacenamiento ni correo; eso lo orquesta application/reminder.
package reminder

import "time"

// Tier nivel de escalamiento de un recordatorio.
type Tier string

const (
	TierFirst  Tier = "1st"
	TierSecond Tier = "2nd"
	TierFinal  Tier = "final"
)

// Stage un nivel del escalamiento con su umbral y el texto del correo.
type Stage struct {
	Tier          Tier
	ThresholdDays int
	Subject       string
	Message       string
}

// Schedule define los niveles en orden ascendente y la tolerancia de la
// ventana de elegibilidad. La tolerancia absorbe el jitter de un cron diario
// que no corre a la misma hora exacta; si el scheduler no corre durante más
// días que la tolerancia, un nivel puede perderse. Eso es una decisión
// operativa aceptada, no un bug.
type Schedule struct {
	stages        []Stage
	toleranceDays int
}

// NewSchedule construye el escalamiento estándar del producto:
// 1st a los 7 días, 2nd a los 14, final a los 21, con los textos
// históricos en alemán. toleranceDays define la ventana [umbral, umbral+tolerancia).
func NewSchedule(toleranceDays int) Schedule {
	return Schedule{
		toleranceDays: toleranceDays,
		stages: []Stage{
			{
				Tier:          TierFirst,
				ThresholdDays: 7,
				Subject:       "Freundliche Zahlungserinnerung",
				Message:       "Wir möchten Sie freundlich daran erinnern, dass die Zahlung für diese Rechnung noch aussteht. Sollten Sie die Rechnung bereits beglichen haben, betrachten Sie diese E-Mail bitte als gegenstandslos.",
			},
			{
				Tier:          TierSecond,
				ThresholdDays: 14,
				Subject:       "2. Zahlungserinnerung",
				Message:       "Leider haben wir bisher keine Zahlung für diese Rechnung erhalten. Wir bitten Sie höflich, den ausstehenden Betrag umgehend zu begleichen. Bei Fragen oder Problemen kontaktieren Sie uns bitte.",
			},
			{
				Tier:          TierFinal,
				ThresholdDays: 21,
				Subject:       "Letzte Mahnung - Zahlungsaufforderung",
				Message:       "Dies ist unsere letzte Mahnung. Die Rechnung ist nun erheblich überfällig. Bitte begleichen Sie den ausstehenden Betrag innerhalb der nächsten 7 Tage, um weitere rechtliche Schritte zu vermeiden.",
			},
		},
	}
}

// Stages devuelve los niveles en orden ascendente.
func (s Schedule) Stages() []Stage { return s.stages }

// ToleranceDays devuelve la tolerancia configurada.
func (s Schedule) ToleranceDays() int { return s.toleranceDays }

// DaysOverdue días completos transcurridos desde el vencimiento.
// Negativo si la factura aún no vence.
func DaysOverdue(dueDate, now time.Time) int {
	return int(now.Sub(dueDate).Hours() / 24)
}

// DueStage decide qué nivel (si alguno) corresponde enviar hoy para una
// factura con daysOverdue días de atraso, dado el conjunto de niveles ya
// enviados según el libro de recordatorios.
//
// Regla en dos pasos:
//
//  1. Debe existir algún nivel cuya ventana [umbral, umbral+tolerancia)
//     contenga daysOverdue. Fuera de toda ventana no se envía nada: así un
//     nivel saltado no se dispara tardíamente por sí solo.
//
//  2. De los niveles con umbral alcanzado, se envía el primero en orden
//     ascendente que no esté en sent. Una factura muy atrasada que saltó
//     niveles recibe el nivel pendiente más temprano, no el más urgente.
//     Cambiar esta política cambia la cadencia de cara al cliente; se
//     conserva el comportamiento histórico del producto.
//
// Devuelve false si no corresponde enviar nada (nada en ventana, o todo lo
// alcanzado ya fue enviado).
func (s Schedule) DueStage(daysOverdue int, sent map[Tier]bool) (Stage, bool) {
	inWindow := false
	for _, st := range s.stages {
		if daysOverdue >= st.ThresholdDays && daysOverdue < st.ThresholdDays+s.toleranceDays {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return Stage{}, false
	}

	for _, st := range s.stages {
		if st.ThresholdDays <= daysOverdue && !sent[st.Tier] {
			return st, true
		}
	}
	return Stage{}, false
}
