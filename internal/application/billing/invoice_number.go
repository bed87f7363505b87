package billing

import (
	"fmt"
	"strconv"
	"strings"
)

// NextInvoiceNumber calcula el siguiente consecutivo anual a partir del
// número más alto existente ese año ("" si aún no hay ninguno).
// Formato: {año}-{secuencia} con relleno a 3 dígitos (ej. 2025-001).
// Pasados 999 el número simplemente crece (2025-1000); la unicidad la
// garantiza el índice único de la tabla, no el formato.
func NextInvoiceNumber(last string, year int) (string, error) {
	next := 1
	if last != "" {
		idx := strings.LastIndex(last, "-")
		if idx < 0 {
			return "", fmt.Errorf("número de factura sin sufijo: %q", last)
		}
		n, err := strconv.Atoi(last[idx+1:])
		if err != nil {
			return "", fmt.Errorf("sufijo de número de factura no numérico: %q", last)
		}
		next = n + 1
	}
	return fmt.Sprintf("%d-%03d", year, next), nil
}
