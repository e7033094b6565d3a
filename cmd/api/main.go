package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/clinic"
	"github.com/jhoicas/clinica-api/internal/application/rules"
	"github.com/jhoicas/clinica-api/internal/application/user"
	infrapdf "github.com/jhoicas/clinica-api/internal/infrastructure/pdf"
	"github.com/jhoicas/clinica-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/clinica-api/internal/interfaces/http"
	"github.com/jhoicas/clinica-api/pkg/config"
	"github.com/jhoicas/clinica-api/pkg/logger"
	"github.com/jhoicas/clinica-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer backend.Close()

	m := metrics.New("clinica")
	recorder := audit.NewQueueRecorder(backend.Audit, audit.RecorderConfig{
		QueueSize:    cfg.Audit.QueueSize,
		Workers:      cfg.Audit.Workers,
		MaxRetries:   cfg.Audit.MaxRetries,
		RetryBackoff: time.Duration(cfg.Audit.RetryBackoffMS) * time.Millisecond,
	}, log, audit.WithMetrics(m))

	clinicSvc := clinic.NewService(backend.Tx, backend.Clinics, backend.Users, backend.Identity, recorder, log)
	reconciler := clinic.NewReconciler(backend.Clinics, backend.Users, backend.Identity, recorder, log)
	userSvc := user.NewService(backend.Clinics, backend.Users, backend.Identity, recorder, log)
	auditQuery := audit.NewQueryService(backend.Audit, backend.Clinics, infrapdf.NewMarotoReportGenerator(nil))
	authUC := auth.NewAuthUseCase(backend.Identity, backend.Users, backend.Clinics, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	if cfg.Bootstrap.Enabled() {
		created, err := userSvc.EnsureSystemAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("crear administrador de sistema")
		}
		if created {
			log.Info().Str("email", cfg.Bootstrap.AdminEmail).Msg("administrador de sistema sembrado")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs, solo si el archivo existe.
	if cfg.HTTP.SwaggerFile != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "Clínica API",
			}))
		} else {
			log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no encontrado, /docs deshabilitado")
		}
	}

	runCtx, stopRun := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopRun()

	var limiter *httpRouter.RateLimiterStore
	if cfg.RateLimit.RPS > 0 {
		limiter = httpRouter.NewRateLimiterStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.RunSweeper(runCtx, time.Minute)
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		ClinicSvc:   clinicSvc,
		Reconciler:  reconciler,
		UserSvc:     userSvc,
		AuditQuery:  auditQuery,
		RulesSvc:    rules.NewService(nil),
		RateLimiter: limiter,
		Metrics:     m,
		Logger:      log.Component("http"),
		JWTSecret:   cfg.JWT.Secret,
		AppName:     cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-runCtx.Done()
	stopRun()

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("vaciar cola de auditoría")
	}

	log.Info().Msg("aplicación detenida")
}
