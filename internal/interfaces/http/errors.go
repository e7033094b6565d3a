package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
)

// LocalError guarda la causa de una respuesta 5xx para el log de acceso.
const LocalError = "error"

// writeError traduce la taxonomía de errores del dominio a dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, body := mapError(err)
	if status >= fiber.StatusInternalServerError {
		c.Locals(LocalError, err)
	}
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	var (
		verr  *domain.ValidationError
		brerr *domain.BusinessRuleError
		aerr  *domain.AuthorizationError
		cerr  *domain.ConflictError
		nerr  *domain.NotFoundError
		perr  *domain.ProvisioningError
	)
	// ProvisioningError envuelve la causa del proveedor de identidad; se evalúa antes
	// que cualquier error tipado que pueda traer dentro.
	switch {
	case errors.As(err, &perr):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "PROVISIONING_FAILED", Message: perr.Error(), Details: []string{perr.ClinicID}}
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: verr.Result.Errors}
	case errors.As(err, &brerr):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "BUSINESS_RULE", Message: "regla de negocio violada", Details: brerr.Result.Errors}
	case errors.As(err, &aerr):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: aerr.Reason}
	case errors.As(err, &cerr):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: cerr.Error(), Details: nonEmptyDetail(cerr.Field)}
	case errors.As(err, &nerr):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: nerr.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}

func nonEmptyDetail(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
