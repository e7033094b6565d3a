package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/clinic"
	"github.com/jhoicas/clinica-api/internal/application/dto"
)

// ClinicHandler maneja las peticiones HTTP para el recurso Clinic.
type ClinicHandler struct {
	svc        *clinic.Service
	reconciler *clinic.Reconciler
}

// NewClinicHandler construye el handler inyectando los casos de uso.
func NewClinicHandler(svc *clinic.Service, reconciler *clinic.Reconciler) *ClinicHandler {
	return &ClinicHandler{svc: svc, reconciler: reconciler}
}

// Create godoc
// @Summary      Crear clínica con su administrador
// @Tags         clinics
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClinicRequest  true  "Datos de la clínica y del administrador"
// @Success      201   {object}  dto.ClinicResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/clinics [post]
func (h *ClinicHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClinicRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Create(c.UserContext(), GetActor(c), GetMeta(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Search godoc
// @Summary      Buscar clínicas
// @Tags         clinics
// @Produce      json
// @Param        q           query  string  false  "Nombre, CNPJ o email"
// @Param        status      query  string  false  "active | inactive | provisioning_failed"
// @Param        sort_by     query  string  false  "name | city | created_at"
// @Param        sort_order  query  string  false  "asc | desc"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ClinicListResponse
// @Router       /api/clinics [get]
func (h *ClinicHandler) Search(c *fiber.Ctx) error {
	var in dto.SearchClinicsRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.svc.Search(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener clínica por ID
// @Tags         clinics
// @Produce      json
// @Param        id   path  string  true  "ID de la clínica"
// @Success      200  {object}  dto.ClinicResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clinics/{id} [get]
func (h *ClinicHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar clínica (parcial)
// @Tags         clinics
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la clínica"
// @Param        body  body  dto.UpdateClinicRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ClinicResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clinics/{id} [put]
func (h *ClinicHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateClinicRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Update(c.UserContext(), GetActor(c), GetMeta(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ToggleStatus godoc
// @Summary      Activar o desactivar clínica
// @Tags         clinics
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la clínica"
// @Param        body  body  dto.ToggleStatusRequest  true  "active | inactive"
// @Success      200   {object}  dto.ClinicResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clinics/{id}/status [patch]
func (h *ClinicHandler) ToggleStatus(c *fiber.Ctx) error {
	var in dto.ToggleStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.ToggleStatus(c.UserContext(), GetActor(c), GetMeta(c), c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar clínica y sus usuarios
// @Tags         clinics
// @Param        id   path  string  true  "ID de la clínica"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clinics/{id} [delete]
func (h *ClinicHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), GetActor(c), GetMeta(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reconcile godoc
// @Summary      Reaprovisionar clínicas en provisioning_failed
// @Tags         clinics
// @Produce      json
// @Success      200  {array}  dto.ReconcileResult
// @Router       /api/clinics/reconcile [post]
func (h *ClinicHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.reconciler.Reconcile(c.UserContext(), GetActor(c), GetMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
