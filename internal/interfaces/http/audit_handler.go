package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

// AuditHandler visor administrativo de auditoría.
type AuditHandler struct {
	svc *audit.QueryService
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.QueryService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// ForClinic godoc
// @Summary      Auditoría de una clínica
// @Tags         audit
// @Produce      json
// @Param        id      path   string  true   "ID de la clínica"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AuditListResponse
// @Router       /api/clinics/{id}/audit [get]
func (h *AuditHandler) ForClinic(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	entries, err := h.svc.GetForTenant(c.UserContext(), GetActor(c), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AuditListResponse{
		Items: audit.ToResponse(entries),
		Page:  dto.PageResponse{Limit: effectiveLimit(page.Limit), Offset: page.Offset},
	})
}

// Report godoc
// @Summary      Informe PDF de auditoría de una clínica
// @Tags         audit
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la clínica"
// @Success      200  {file}  binary
// @Router       /api/clinics/{id}/audit/report [get]
func (h *AuditHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.svc.Report(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="auditoria-%s.pdf"`, id))
	return c.Send(pdf)
}

// List godoc
// @Summary      Listado global de auditoría
// @Tags         audit
// @Produce      json
// @Param        action     query  string  false  "Acción"
// @Param        actor_id   query  string  false  "Actor"
// @Param        severity   query  string  false  "info | warning | error"
// @Param        status     query  string  false  "success | error"
// @Param        from       query  string  false  "RFC3339"
// @Param        to         query  string  false  "RFC3339"
// @Param        limit      query  int     false  "Límite"  default(50)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AuditListResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.AuditListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	filter, err := toAuditFilter(q)
	if err != nil {
		return writeError(c, err)
	}
	entries, err := h.svc.List(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AuditListResponse{
		Items: audit.ToResponse(entries),
		Page:  dto.PageResponse{Limit: effectiveLimit(q.Limit), Offset: q.Offset},
	})
}

func toAuditFilter(q dto.AuditListQuery) (repository.AuditFilter, error) {
	f := repository.AuditFilter{
		Action:   q.Action,
		ActorID:  q.ActorID,
		Severity: q.Severity,
		Status:   q.Status,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	var errs []string
	parse := func(name, raw string) *time.Time {
		if raw == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s debe ser RFC3339", name))
			return nil
		}
		return &t
	}
	f.From = parse("from", q.From)
	f.To = parse("to", q.To)
	if len(errs) > 0 {
		return f, &domain.ValidationError{Result: domain.NewValidationResult(errs)}
	}
	return f, nil
}

func effectiveLimit(limit int) int {
	if limit == 0 {
		return audit.DefaultLimit
	}
	return limit
}
