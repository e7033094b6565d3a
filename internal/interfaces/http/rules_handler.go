package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/rules"
)

// RulesHandler valida notas fiscales, pacientes y solicitudes sin persistirlos.
// Responde 200 con el resultado agregado aunque haya violaciones.
type RulesHandler struct {
	svc *rules.Service
}

// NewRulesHandler construye el handler.
func NewRulesHandler(svc *rules.Service) *RulesHandler {
	return &RulesHandler{svc: svc}
}

// Invoice godoc
// @Summary      Validar nota fiscal
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la clínica"
// @Param        body  body  dto.ValidateInvoiceRequest  true  "Nota fiscal"
// @Success      200   {object}  dto.ValidationResultResponse
// @Router       /api/clinics/{id}/validate/invoices [post]
func (h *RulesHandler) Invoice(c *fiber.Ctx) error {
	var in dto.ValidateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.ValidateInvoice(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Patient godoc
// @Summary      Validar paciente
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la clínica"
// @Param        body  body  dto.ValidatePatientRequest  true  "Paciente"
// @Success      200   {object}  dto.ValidationResultResponse
// @Router       /api/clinics/{id}/validate/patients [post]
func (h *RulesHandler) Patient(c *fiber.Ctx) error {
	var in dto.ValidatePatientRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.ValidatePatient(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Request godoc
// @Summary      Validar solicitud de insumos
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la clínica"
// @Param        body  body  dto.ValidateRequestRequest  true  "Solicitud"
// @Success      200   {object}  dto.ValidationResultResponse
// @Router       /api/clinics/{id}/validate/requests [post]
func (h *RulesHandler) Request(c *fiber.Ctx) error {
	var in dto.ValidateRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.ValidateRequest(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
