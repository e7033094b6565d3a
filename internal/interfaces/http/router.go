package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/clinic"
	"github.com/jhoicas/clinica-api/internal/application/rules"
	"github.com/jhoicas/clinica-api/internal/application/user"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/pkg/logger"
	"github.com/jhoicas/clinica-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ClinicSvc   *clinic.Service
	Reconciler  *clinic.Reconciler
	UserSvc     *user.Service
	AuditQuery  *audit.QueryService
	RulesSvc    *rules.Service
	RateLimiter *RateLimiterStore
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	JWTSecret   string
	AppName     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestMeta())
	app.Use(AccessLog(deps.Metrics, deps.Logger))
	if deps.RateLimiter != nil {
		app.Use(RateLimit(deps.RateLimiter))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	systemOnly := RequireRole(entity.RoleSystemLevel)

	clinics := protected.Group("/clinics")
	clinicHandler := NewClinicHandler(deps.ClinicSvc, deps.Reconciler)
	clinics.Post("/", systemOnly, clinicHandler.Create)
	clinics.Get("/", systemOnly, clinicHandler.Search)
	clinics.Post("/reconcile", systemOnly, clinicHandler.Reconcile)
	clinics.Get("/:id", clinicHandler.GetByID)
	clinics.Put("/:id", clinicHandler.Update)
	clinics.Patch("/:id/status", systemOnly, clinicHandler.ToggleStatus)
	clinics.Delete("/:id", systemOnly, clinicHandler.Delete)

	// Usuarios de la clínica
	userHandler := NewUserHandler(deps.UserSvc)
	clinics.Post("/:id/users", RequirePermission(entity.PermManageUsers), userHandler.Create)
	clinics.Get("/:id/users", userHandler.List)

	// Auditoría
	auditHandler := NewAuditHandler(deps.AuditQuery)
	clinics.Get("/:id/audit", auditHandler.ForClinic)
	clinics.Get("/:id/audit/report", auditHandler.Report)
	protected.Get("/audit", systemOnly, auditHandler.List)

	// Reglas de negocio
	rulesHandler := NewRulesHandler(deps.RulesSvc)
	clinics.Post("/:id/validate/invoices", RequirePermission(entity.PermCreateInvoice), rulesHandler.Invoice)
	clinics.Post("/:id/validate/patients", RequirePermission(entity.PermCreatePatient), rulesHandler.Patient)
	clinics.Post("/:id/validate/requests", RequirePermission(entity.PermCreateRequest), rulesHandler.Request)
}
