package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"erpcrm/internal/cache"
	"erpcrm/internal/database"
	"erpcrm/internal/middleware"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/internal/service"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-secret"

// testServer mounts every handler on one sqlite database
type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	tokens map[string]string // role -> bearer token
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	clientRepo := repository.NewClientRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockMovementRepository(db)
	conditionRepo := repository.NewPaymentConditionRepository(db)
	salesRepo := repository.NewSalesOrderRepository(db)
	accountRepo := repository.NewBankAccountRepository(db)
	payableRepo := repository.NewPayableRepository(db)

	auth := middleware.NewAuth(testSecret, roleRepo, false)
	roleService := service.NewRoleService(roleRepo, txManager, auth)
	require.NoError(t, roleService.SeedDefaultRolesAndPermissions(ctx))

	dashboardService := service.NewDashboardService(repository.NewDashboardRepository(db), cache.NewMemoryCache(), nil, service.DashboardOptions{
		Dialect:        database.DialectSQLite,
		Testing:        true,
		CacheTTL:       time.Minute,
		CurrencyPrefix: "R$",
	})
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, txManager, service.TokenConfig{Secret: testSecret, Expiration: time.Hour})

	router := gin.New()
	routes := router.Group("")
	NewUserHandler(userService, auth).RegisterRoutes(routes, auth)
	NewRoleHandler(roleService).RegisterRoutes(routes, auth)
	NewPartnerHandler(service.NewPartnerService(partnerRepo, addressRepo, auditRepo, txManager)).RegisterRoutes(routes, auth)
	NewProductHandler(
		service.NewProductService(productRepo, categoryRepo, stockRepo, auditRepo, txManager, dashboardService),
		service.NewCategoryService(categoryRepo, auditRepo, txManager),
	).RegisterRoutes(routes, auth)
	NewSalesOrderHandler(service.NewSalesOrderService(salesRepo, clientRepo, vendorRepo, conditionRepo, productRepo, stockRepo, auditRepo, txManager, dashboardService)).RegisterRoutes(routes, auth)
	NewBankAccountHandler(service.NewBankAccountService(accountRepo, auditRepo, txManager)).RegisterRoutes(routes, auth)
	NewPayableHandler(service.NewPayableService(payableRepo, partnerRepo, accountRepo, auditRepo, txManager, dashboardService)).RegisterRoutes(routes, auth)
	NewDashboardHandler(dashboardService).RegisterRoutes(routes, auth)

	s := &testServer{router: router, db: db, tokens: map[string]string{}}
	for _, role := range []string{model.RoleAdmin, "manager", "staff"} {
		user := &model.User{Username: role, Email: role + "@example.com", Password: "x", Role: role}
		require.NoError(t, userRepo.Create(ctx, user))
		s.tokens[role] = signToken(t, user.ID.String(), role)
	}
	return s
}

func signToken(t *testing.T, sub, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends body as JSON with the token of role; an empty role sends no token
func (s *testServer) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[role])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// envelope decodes the standard response with data left raw
type envelope struct {
	Status string            `json:"status"`
	Data   json.RawMessage   `json:"data"`
	Meta   *response.Meta    `json:"meta"`
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// created decodes data of a 201 response into out
func created(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, w).Data, out))
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"field error", &service.FieldError{Field: "name", Message: "is required"}, http.StatusUnprocessableEntity},
		{"invalid input", fmt.Errorf("bad: %w", service.ErrInvalidInput), http.StatusUnprocessableEntity},
		{"not found", fmt.Errorf("client not found: %w", service.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("dup: %w", service.ErrConflict), http.StatusConflict},
		{"transition", fmt.Errorf("nope: %w", service.ErrInvalidTransition), http.StatusConflict},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, errors.New("secret detail"))
	assert.NotContains(t, w.Body.String(), "secret detail")
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/partners", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/partners", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// staff reads but cannot delete or reach access control
	w = s.do(t, http.MethodGet, "/api/partners", "staff", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/partners/0b3a4a0c-1d2e-4f50-8a6b-7c8d9e0f1a2b", "staff", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodGet, "/api/roles", "manager", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodGet, "/api/roles", model.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/me", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &me))
	assert.Equal(t, "staff", me.Role)
	assert.Contains(t, me.Permissions, "partners.read")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/users", model.RoleAdmin, map[string]any{
		"username": "carla", "email": "carla@example.com", "password": "password1", "role": "staff",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login", "", map[string]any{"email": "carla@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token service.TokenResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &token))
	assert.NotEmpty(t, token.Token)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, token.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// the cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	w = s.do(t, http.MethodPost, "/login", "", map[string]any{"email": "carla@example.com", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/login", "", map[string]any{"email": "carla"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	assert.Equal(t, "must be a valid email address", env.Errors["email"])
	assert.Equal(t, "is required", env.Errors["password"])
}

func TestBindJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/partners", model.RoleAdmin, `{"name": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/partners", model.RoleAdmin, `{"name": 12, "type": "client"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Errors, "name")

	w = s.do(t, http.MethodPost, "/api/partners", model.RoleAdmin, map[string]any{"name": "Acme", "type": "reseller"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "must be one of: client supplier both", decode(t, w).Errors["type"])

	w = s.do(t, http.MethodPost, "/api/sales-orders", model.RoleAdmin, map[string]any{
		"client_id": "0b3a4a0c-1d2e-4f50-8a6b-7c8d9e0f1a2b",
		"discount":  "1.999",
		"items": []map[string]any{
			{"product_id": "0b3a4a0c-1d2e-4f50-8a6b-7c8d9e0f1a2b", "quantity": 1},
			{"product_id": "nope", "quantity": 0},
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	assert.Equal(t, "must be a non-negative amount with at most two decimals", env.Errors["discount"])
	assert.Equal(t, "must be a valid id", env.Errors["items.1.product_id"])
	assert.Equal(t, "is required", env.Errors["items.1.quantity"])
	assert.NotContains(t, env.Errors, "items.0.quantity")

	w = s.do(t, http.MethodPost, "/api/products", model.RoleAdmin, map[string]any{"name": "Lamp", "commission_rate": "150"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "must be a percentage between 0 and 100", decode(t, w).Errors["commission_rate"])
}
