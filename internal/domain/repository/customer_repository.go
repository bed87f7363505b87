package repository

import (
	"context"

	"github.com/gross-ict/billing-engine/internal/domain/entity"
)

// CustomerRepository define el puerto de consulta de clientes.
// Devuelve (nil, nil) si el cliente no existe: para el motor de
// recordatorios un cliente ausente es un ítem omitido, no un error fatal.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}
