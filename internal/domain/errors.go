package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrTemplateInvalid = errors.New("plantilla de facturación inválida")
)
