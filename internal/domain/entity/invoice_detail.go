package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItem línea de la nota: producto, lote y vencimiento.
type InvoiceItem struct {
	ProductID      string
	Lot            string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	ExpirationDate time.Time
}

// Subtotal cantidad × precio unitario.
func (i InvoiceItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}
