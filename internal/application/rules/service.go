// Package rules expone las reglas de negocio de notas fiscales, pacientes y solicitudes
// de insumos a las capas CRUD, con autorización y aislamiento por clínica.
package rules

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	domainrules "github.com/jhoicas/clinica-api/internal/domain/rules"
	"github.com/jhoicas/clinica-api/internal/domain/validation"
)

// Service valida registros sin persistirlos.
type Service struct {
	validator *domainrules.Validator
}

// NewService construye el caso de uso. now nil = time.Now.
func NewService(now func() time.Time) *Service {
	return &Service{validator: domainrules.NewValidator(now)}
}

func (s *Service) authorize(actor entity.Actor, clinicID string, perm entity.Permission) error {
	if err := access.RequirePermission(actor, perm); err != nil {
		return err
	}
	return access.Guard(actor, clinicID)
}

// ValidateInvoice número y CNPJ del proveedor (estructural) más las reglas de la nota.
func (s *Service) ValidateInvoice(_ context.Context, actor entity.Actor, clinicID string, in dto.ValidateInvoiceRequest) (*dto.ValidationResultResponse, error) {
	if err := s.authorize(actor, clinicID, entity.PermCreateInvoice); err != nil {
		return nil, err
	}
	var errs []string
	if strings.TrimSpace(in.Number) == "" {
		errs = append(errs, "número de la nota es obligatorio")
	}
	if !validation.IsValidNationalID(in.SupplierCNPJ) {
		errs = append(errs, "CNPJ del proveedor inválido")
	}
	inv := entity.Invoice{
		ClinicID:     clinicID,
		Number:       in.Number,
		SupplierCNPJ: in.SupplierCNPJ,
		EmissionDate: in.EmissionDate,
		TotalValue:   in.TotalValue,
		Items:        make([]entity.InvoiceItem, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		inv.Items = append(inv.Items, entity.InvoiceItem{
			ProductID:      it.ProductID,
			Lot:            it.Lot,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			ExpirationDate: it.ExpirationDate,
		})
	}
	return toResponse(domain.NewValidationResult(errs).Merge(s.validator.ValidateInvoice(inv))), nil
}

// ValidatePatient nombre, CPF, email y teléfono opcionales más las reglas de edad.
func (s *Service) ValidatePatient(_ context.Context, actor entity.Actor, clinicID string, in dto.ValidatePatientRequest) (*dto.ValidationResultResponse, error) {
	if err := s.authorize(actor, clinicID, entity.PermCreatePatient); err != nil {
		return nil, err
	}
	var errs []string
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, "nombre del paciente es obligatorio")
	}
	if !validation.IsValidCPF(in.CPF) {
		errs = append(errs, "CPF inválido")
	}
	if in.Email != "" && !validation.IsValidEmail(in.Email) {
		errs = append(errs, "email inválido")
	}
	if in.Phone != "" && !validation.IsValidPhone(in.Phone) {
		errs = append(errs, "teléfono inválido")
	}
	p := entity.Patient{
		ClinicID:  clinicID,
		Name:      in.Name,
		CPF:       in.CPF,
		Email:     in.Email,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
	}
	return toResponse(domain.NewValidationResult(errs).Merge(s.validator.ValidatePatient(p))), nil
}

// ValidateRequest reglas de fecha y cantidades de la solicitud.
func (s *Service) ValidateRequest(_ context.Context, actor entity.Actor, clinicID string, in dto.ValidateRequestRequest) (*dto.ValidationResultResponse, error) {
	if err := s.authorize(actor, clinicID, entity.PermCreateRequest); err != nil {
		return nil, err
	}
	r := entity.SupplyRequest{
		ClinicID:    clinicID,
		RequestedBy: actor.ID,
		RequestDate: in.RequestDate,
		Items:       make([]entity.SupplyRequestItem, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		r.Items = append(r.Items, entity.SupplyRequestItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return toResponse(s.validator.ValidateRequest(r)), nil
}

func toResponse(r domain.ValidationResult) *dto.ValidationResultResponse {
	return &dto.ValidationResultResponse{Valid: r.Valid, Errors: r.Errors}
}
