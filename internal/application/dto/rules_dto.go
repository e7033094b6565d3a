package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItemDTO línea de nota fiscal a validar.
type InvoiceItemDTO struct {
	ProductID      string          `json:"product_id"`
	Lot            string          `json:"lot"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ExpirationDate time.Time       `json:"expiration_date"`
}

// ValidateInvoiceRequest nota fiscal de entrada a validar.
type ValidateInvoiceRequest struct {
	Number       string           `json:"number"`
	SupplierCNPJ string           `json:"supplier_cnpj"`
	EmissionDate time.Time        `json:"emission_date"`
	TotalValue   decimal.Decimal  `json:"total_value"`
	Items        []InvoiceItemDTO `json:"items"`
}

// ValidatePatientRequest paciente a validar.
type ValidatePatientRequest struct {
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	BirthDate time.Time `json:"birth_date"`
}

// SupplyRequestItemDTO producto y cantidad.
type SupplyRequestItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ValidateRequestRequest solicitud de insumos a validar.
type ValidateRequestRequest struct {
	RequestDate time.Time              `json:"request_date"`
	Items       []SupplyRequestItemDTO `json:"items"`
}

// ValidationResultResponse resultado agregado de reglas.
type ValidationResultResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
