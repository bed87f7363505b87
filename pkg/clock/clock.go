package clock

import "time"

// Clock abstrae la obtención de la hora actual para que los motores
// de facturación y recordatorios sean deterministas en tests.
type Clock interface {
	Now() time.Time
}

// System usa el reloj del sistema operativo.
type System struct{}

// Now devuelve la hora actual local.
func (System) Now() time.Time { return time.Now() }

// Fixed devuelve siempre el mismo instante (para tests).
type Fixed struct {
	Instant time.Time
}

// Now devuelve el instante fijo configurado.
func (f Fixed) Now() time.Time { return f.Instant }
