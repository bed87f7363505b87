package entity

import "github.com/shopspring/decimal"

// InvoiceItem representa una línea de una factura. Se crea una sola vez,
// al materializar la factura, copiando la línea de la plantilla; nunca se muta.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Position    int
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}
