package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain/access"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/pkg/jwt"
)

// Locals keys del contexto Fiber.
const (
	LocalActor = "actor"
	LocalMeta  = "request_meta"
)

// HeaderCorrelationID cabecera de correlación entre servicios.
const HeaderCorrelationID = "X-Correlation-ID"

// RequestMeta guarda IP, user agent y correlation id para la auditoría.
// Si el cliente no envía X-Correlation-ID se genera uno y se devuelve en la respuesta.
func RequestMeta() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cid := strings.TrimSpace(c.Get(HeaderCorrelationID))
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set(HeaderCorrelationID, cid)
		c.Locals(LocalMeta, entity.RequestMeta{
			IPAddress:     c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			CorrelationID: cid,
		})
		return c.Next()
	}
}

// AuthMiddleware valida el Bearer Token JWT y deja el entity.Actor en c.Locals.
// Rol desconocido → 401; permisos desconocidos se descartan.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		sub, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if sub.Role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no contiene rol"})
		}
		role, ok := entity.ParseRole(sub.Role)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_ROLE", Message: "rol desconocido: " + sub.Role})
		}
		c.Locals(LocalActor, entity.Actor{
			ID:          sub.UserID,
			Role:        role,
			ClinicID:    sub.TenantID,
			Permissions: access.ParsePermissions(sub.Permissions),
		})
		return c.Next()
	}
}

// RequireRole corta con 403 si el actor no tiene uno de los roles. Va después de AuthMiddleware.
func RequireRole(roles ...entity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "actor no autenticado"})
		}
		if err := access.RequireRole(actor, roles...); err != nil {
			return writeError(c, err)
		}
		return c.Next()
	}
}

// RequirePermission corta con 403 si el actor no tiene el permiso exacto.
func RequirePermission(perm entity.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "actor no autenticado"})
		}
		if err := access.RequirePermission(actor, perm); err != nil {
			return writeError(c, err)
		}
		return c.Next()
	}
}

func actorFrom(c *fiber.Ctx) (entity.Actor, bool) {
	a, ok := c.Locals(LocalActor).(entity.Actor)
	return a, ok
}

// GetActor devuelve el actor del contexto (después del middleware de auth).
func GetActor(c *fiber.Ctx) entity.Actor {
	a, _ := actorFrom(c)
	return a
}

// GetMeta devuelve los metadatos de origen (después de RequestMeta).
func GetMeta(c *fiber.Ctx) entity.RequestMeta {
	m, _ := c.Locals(LocalMeta).(entity.RequestMeta)
	return m
}

// GetRole rol del actor autenticado, vacío si no hay actor.
func GetRole(c *fiber.Ctx) string {
	return string(GetActor(c).Role)
}
