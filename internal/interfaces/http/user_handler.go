package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/user"
)

// UserHandler usuarios de una clínica.
type UserHandler struct {
	svc *user.Service
}

// NewUserHandler construye el handler.
func NewUserHandler(svc *user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create godoc
// @Summary      Crear usuario en la clínica
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la clínica"
// @Param        body  body  dto.CreateUserRequest  true  "Datos del usuario"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clinics/{id}/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.CreateUser(c.UserContext(), GetActor(c), GetMeta(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar usuarios de la clínica
// @Tags         users
// @Produce      json
// @Param        id   path  string  true  "ID de la clínica"
// @Success      200  {object}  dto.UserListResponse
// @Router       /api/clinics/{id}/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.ListUsers(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
