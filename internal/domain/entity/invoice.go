package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice nota fiscal de entrada de insumos de una clínica.
type Invoice struct {
	ID           string
	ClinicID     string
	Number       string
	SupplierCNPJ string
	EmissionDate time.Time
	TotalValue   decimal.Decimal
	Items        []InvoiceItem
	CreatedAt    time.Time
}
