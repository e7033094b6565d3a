package entity

import "time"

// SupplyRequest solicitud de insumos al inventario de la clínica.
type SupplyRequest struct {
	ID          string
	ClinicID    string
	RequestedBy string
	RequestDate time.Time
	Items       []SupplyRequestItem
}

// SupplyRequestItem producto y cantidad solicitada.
type SupplyRequestItem struct {
	ProductID string
	Quantity  int
}
