package entity

import "time"

// Customer representa un cliente de la empresa.
// El CRUD de clientes vive en otra aplicación; aquí solo se consulta
// para resolver el destinatario de facturas y recordatorios.
type Customer struct {
	ID               string
	Name             string
	Email            string
	Language         string // es, de, en — usado por las plantillas de correo
	PaymentTermsDays int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
