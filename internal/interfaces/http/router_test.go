package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/clinic"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/rules"
	"github.com/jhoicas/clinica-api/internal/application/user"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/infrastructure/identity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/clinica-api/internal/interfaces/http"
	"github.com/jhoicas/clinica-api/pkg/logger"
	"github.com/jhoicas/clinica-api/pkg/metrics"
)

const (
	rootEmail    = "root@clinica.dev"
	rootPassword = "rootpass123"
)

type apiHarness struct {
	app      *fiber.App
	recorder *audit.QueueRecorder
	identity *identity.MemoryService
}

// newAPI arma la API completa sobre el almacén y la identidad en memoria.
func newAPI(t *testing.T, limiter *apphttp.RateLimiterStore) *apiHarness {
	t.Helper()
	store := memory.NewStore()
	ident := identity.NewMemoryService(0)
	auditRepo := memory.NewAuditRepo()
	m := metrics.New("clinica")
	recorder := audit.NewQueueRecorder(auditRepo, audit.RecorderConfig{}, logger.Nop(), audit.WithMetrics(m))
	t.Cleanup(func() { _ = recorder.Close(context.Background()) })

	userSvc := user.NewService(store.Clinics(), store.Users(), ident, recorder, logger.Nop())
	created, err := userSvc.EnsureSystemAdmin(context.Background(), rootEmail, rootPassword)
	require.NoError(t, err)
	require.True(t, created)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(ident, store.Users(), store.Clinics(), auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}),
		ClinicSvc:   clinic.NewService(store, store.Clinics(), store.Users(), ident, recorder, logger.Nop()),
		Reconciler:  clinic.NewReconciler(store.Clinics(), store.Users(), ident, recorder, logger.Nop()),
		UserSvc:     userSvc,
		AuditQuery:  audit.NewQueryService(auditRepo, store.Clinics(), pdf.NewMarotoReportGenerator(nil)),
		RulesSvc:    rules.NewService(nil),
		RateLimiter: limiter,
		Metrics:     m,
		Logger:      logger.Nop(),
		JWTSecret:   testJWTSecret,
		AppName:     "clinica-api-test",
	})
	return &apiHarness{app: app, recorder: recorder, identity: ident}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *apiHarness) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (h *apiHarness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.recorder.Flush(ctx))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func clinicRequest() dto.CreateClinicRequest {
	return dto.CreateClinicRequest{
		Name:  "Clínica São Lucas",
		CNPJ:  "11.444.777/0001-61",
		Email: "contato@saolucas.com.br",
		Phone: "(11) 98765-4321",
		Address: dto.AddressDTO{
			Street: "Av. Paulista", Number: "1000", Neighborhood: "Bela Vista",
			City: "São Paulo", State: "SP", ZipCode: "01310-100",
		},
		AdminName:     "Ana Souza",
		AdminEmail:    "ana@saolucas.com.br",
		AdminPassword: "segura123",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FlujoClinica(t *testing.T) {
	h := newAPI(t, nil)
	root := h.login(t, rootEmail, rootPassword)

	resp := h.do(t, http.MethodPost, "/api/clinics", root, clinicRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ClinicResponse](t, resp)
	assert.Equal(t, "active", created.Status)
	assert.Equal(t, "11444777000161", created.CNPJ)

	admin := h.login(t, "ana@saolucas.com.br", "segura123")

	// Lectura de la propia clínica y aislamiento frente a otra.
	own := h.do(t, http.MethodGet, "/api/clinics/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusOK, own.StatusCode)
	other := h.do(t, http.MethodGet, "/api/clinics/otra-clinica", admin, nil)
	assert.Equal(t, http.StatusForbidden, other.StatusCode)

	// Búsqueda solo para system_level.
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/clinics", admin, nil).StatusCode)
	list := h.do(t, http.MethodGet, "/api/clinics?q=sao+lucas", root, nil)
	require.Equal(t, http.StatusOK, list.StatusCode)
	page := decode[dto.ClinicListResponse](t, list)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)

	// Alta de usuario por el tenant_admin.
	newUser := dto.CreateUserRequest{
		Email: "bruno@saolucas.com.br", Password: "segura123", Name: "Bruno Lima", Role: "tenant_user",
	}
	resp = h.do(t, http.MethodPost, "/api/clinics/"+created.ID+"/users", admin, newUser)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	users := decode[dto.UserListResponse](t, h.do(t, http.MethodGet, "/api/clinics/"+created.ID+"/users", admin, nil))
	assert.Len(t, users.Items, 2)

	// Auditoría visible para el admin de la clínica.
	h.flush(t)
	resp = h.do(t, http.MethodGet, "/api/clinics/"+created.ID+"/audit", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	trail := decode[dto.AuditListResponse](t, resp)
	require.Len(t, trail.Items, 2)
	assert.Equal(t, "user_created", trail.Items[0].Action)
	assert.Equal(t, "clinic_created", trail.Items[1].Action)

	report := h.do(t, http.MethodGet, "/api/clinics/"+created.ID+"/audit/report", admin, nil)
	require.Equal(t, http.StatusOK, report.StatusCode)
	assert.Equal(t, "application/pdf", report.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(report.Body)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	// El listado global es solo de sistema.
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/audit", admin, nil).StatusCode)
	global := h.do(t, http.MethodGet, "/api/audit?action=clinic_created", root, nil)
	require.Equal(t, http.StatusOK, global.StatusCode)
	assert.Len(t, decode[dto.AuditListResponse](t, global).Items, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_ErroresMapeados(t *testing.T) {
	h := newAPI(t, nil)
	root := h.login(t, rootEmail, rootPassword)

	invalid := clinicRequest()
	invalid.CNPJ = "11.444.777/0001-00"
	invalid.Phone = "123"
	resp := h.do(t, http.MethodPost, "/api/clinics", root, invalid)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.GreaterOrEqual(t, len(body.Details), 2, "una entrada por violación")

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/clinics", root, clinicRequest()).StatusCode)
	dup := h.do(t, http.MethodPost, "/api/clinics", root, clinicRequest())
	assert.Equal(t, http.StatusConflict, dup.StatusCode)

	missing := h.do(t, http.MethodGet, "/api/clinics/no-existe", root, nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	noToken := h.do(t, http.MethodGet, "/api/clinics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, noToken.StatusCode)

	badLogin := h.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: rootEmail, Password: "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, badLogin.StatusCode)
}

func TestAPI_ToggleMismoEstado_Conflicto(t *testing.T) {
	h := newAPI(t, nil)
	root := h.login(t, rootEmail, rootPassword)
	created := decode[dto.ClinicResponse](t, h.do(t, http.MethodPost, "/api/clinics", root, clinicRequest()))

	resp := h.do(t, http.MethodPatch, "/api/clinics/"+created.ID+"/status", root, dto.ToggleStatusRequest{Status: "active"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(t, http.MethodPatch, "/api/clinics/"+created.ID+"/status", root, dto.ToggleStatusRequest{Status: "inactive"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "inactive", decode[dto.ClinicResponse](t, resp).Status)

	// Clínica inactiva: su administrador ya no puede iniciar sesión.
	denied := h.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ana@saolucas.com.br", Password: "segura123"})
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)
}

func TestAPI_AprovisionamientoFallido_502(t *testing.T) {
	h := newAPI(t, nil)
	root := h.login(t, rootEmail, rootPassword)
	h.identity.FailOn("create", assert.AnError)

	resp := h.do(t, http.MethodPost, "/api/clinics", root, clinicRequest())
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "PROVISIONING_FAILED", body.Code)
	require.Len(t, body.Details, 1)

	h.identity.FailOn("create", nil)
	rec := h.do(t, http.MethodPost, "/api/clinics/reconcile", root, nil)
	require.Equal(t, http.StatusOK, rec.StatusCode)
	results := decode[[]dto.ReconcileResult](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, body.Details[0], results[0].ClinicID)
	assert.Empty(t, results[0].Error)
	assert.NotEmpty(t, results[0].TemporaryPassword)

	h.login(t, "ana@saolucas.com.br", results[0].TemporaryPassword)
}

func TestAPI_AprovisionamientoFallido_CausaTipadaSigueSiendo502(t *testing.T) {
	causes := map[string]error{
		"conflicto": &domain.ConflictError{Field: "email", Message: "cuenta de acceso ya existe"},
		"no existe": &domain.NotFoundError{Resource: "cuenta", ID: "x"},
	}
	for name, cause := range causes {
		t.Run(name, func(t *testing.T) {
			h := newAPI(t, nil)
			root := h.login(t, rootEmail, rootPassword)
			h.identity.FailOn("create", cause)

			resp := h.do(t, http.MethodPost, "/api/clinics", root, clinicRequest())
			require.Equal(t, http.StatusBadGateway, resp.StatusCode)
			body := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, "PROVISIONING_FAILED", body.Code)
			require.Len(t, body.Details, 1)

			got := decode[dto.ClinicResponse](t, h.do(t, http.MethodGet, "/api/clinics/"+body.Details[0], root, nil))
			assert.Equal(t, "provisioning_failed", got.Status)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Reglas de negocio
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_ValidateRequests(t *testing.T) {
	h := newAPI(t, nil)
	root := h.login(t, rootEmail, rootPassword)
	created := decode[dto.ClinicResponse](t, h.do(t, http.MethodPost, "/api/clinics", root, clinicRequest()))
	admin := h.login(t, "ana@saolucas.com.br", "segura123")

	in := dto.ValidateRequestRequest{
		RequestDate: time.Now().Add(-time.Hour),
		Items:       []dto.SupplyRequestItemDTO{{ProductID: "p1", Quantity: 0}, {ProductID: "p2", Quantity: 5}},
	}
	resp := h.do(t, http.MethodPost, "/api/clinics/"+created.ID+"/validate/requests", admin, in)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.ValidationResultResponse](t, resp)
	assert.False(t, out.Valid)
	assert.Equal(t, []string{"ítem 1: cantidad debe ser mayor que cero"}, out.Errors)

	other := h.do(t, http.MethodPost, "/api/clinics/otra/validate/requests", admin, in)
	assert.Equal(t, http.StatusForbidden, other.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Infraestructura HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_MetricsYHealth(t *testing.T) {
	h := newAPI(t, nil)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health", "", nil).StatusCode)

	resp := h.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "clinica_http_requests_total")
}

func TestAPI_RateLimit(t *testing.T) {
	h := newAPI(t, apphttp.NewRateLimiterStore(0.001, 2))

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health", "", nil).StatusCode)
	resp := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decode[dto.ErrorResponse](t, resp).Code)
}
