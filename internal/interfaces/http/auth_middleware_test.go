package http_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	pkgjwt "github.com/jhoicas/repairshop-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "3c9d6a1e-7b2f-4e8a-9c5d-0a1b2c3d4e5f"
	testIssuer    = "repairshop-test"
)

func testTokens(t *testing.T) *pkgjwt.Service {
	t.Helper()
	s, err := pkgjwt.New(pkgjwt.Config{Secret: testJWTSecret, Issuer: testIssuer, MaxAge: time.Hour})
	require.NoError(t, err)
	return s
}

// tokenForRole genera un JWT del emisor configurado con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := testTokens(t).Issue(pkgjwt.Identity{UserID: testUserID, CompanyID: testCompanyID, Role: role})
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// signedToken firma claims arbitrarios con el secreto de los tests.
func signedToken(t *testing.T, mutate func(gojwt.MapClaims)) string {
	t.Helper()
	now := time.Now()
	claims := gojwt.MapClaims{
		"iss":        testIssuer,
		"sub":        testUserID,
		"iat":        now.Unix(),
		"exp":        now.Add(time.Hour).Unix(),
		"user_id":    testUserID,
		"company_id": testCompanyID,
		"role":       "admin",
	}
	mutate(claims)
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole sobre las rutas reales
// ──────────────────────────────────────────────────────────────────────────────

// Historial de caja: solo gerencia (admin, manager).
func TestRequireRole_HistorialDeCaja(t *testing.T) {
	app := buildAPI(t, nil)
	cases := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"manager", http.StatusOK},
		{"cashier", http.StatusForbidden},
		{"technician", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			resp, env := call(t, app, http.MethodGet, "/api/cash-drawer/history", tc.role, nil)
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want == http.StatusForbidden {
				require.NotNil(t, env.Error)
				assert.Equal(t, "FORBIDDEN", env.Error.Code)
			}
		})
	}
}

// Operación de caja: admin, manager y cashier; el técnico no.
func TestRequireRole_CajaAbiertaSoloCajeros(t *testing.T) {
	app := buildAPI(t, nil)

	resp, _ := call(t, app, http.MethodGet, "/api/cash-drawer/current", "technician", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	for _, role := range []string{"admin", "manager", "cashier"} {
		resp, _ := call(t, app, http.MethodGet, "/api/cash-drawer/current", role, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, role)
	}
}

// Borrar facturas: solo gerencia; cualquier rol puede crearlas.
func TestRequireRole_BorrarFactura(t *testing.T) {
	app := buildAPI(t, nil)

	resp, env := call(t, app, http.MethodPost, "/api/invoices", "technician", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var inv dto.InvoiceResponse
	decodeData(t, env, &inv)

	for _, role := range []string{"cashier", "technician"} {
		resp, _ := call(t, app, http.MethodDelete, "/api/invoices/"+inv.ID, role, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, role)
	}

	resp, _ = call(t, app, http.MethodDelete, "/api/invoices/"+inv.ID, "admin", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Token sin claim de rol → 401 MISSING_ROLE.
func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	app := buildAPI(t, nil)
	auth := signedToken(t, func(c gojwt.MapClaims) { delete(c, "role") })

	resp, env := send(t, app, http.MethodGet, "/api/invoices", auth, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_ROLE", env.Error.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_RechazaTokens(t *testing.T) {
	app := buildAPI(t, nil)
	cases := []struct {
		name string
		auth string
		code string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema distinto de Bearer", "Token abc", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"emisor distinto", signedToken(t, func(c gojwt.MapClaims) { c["iss"] = "otro-servicio" }), "INVALID_TOKEN"},
		{"vencido", signedToken(t, func(c gojwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }), "INVALID_TOKEN"},
		{"sin exp", signedToken(t, func(c gojwt.MapClaims) { delete(c, "exp") }), "INVALID_TOKEN"},
		{"sin company_id", signedToken(t, func(c gojwt.MapClaims) { delete(c, "company_id") }), "MISSING_TENANT"},
		{"company_id inválido", signedToken(t, func(c gojwt.MapClaims) { c["company_id"] = "empresa-1" }), "MISSING_TENANT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := send(t, app, http.MethodGet, "/api/invoices", tc.auth, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

// El tenant del token se normaliza: el mismo company_id en mayúsculas ve las mismas facturas.
func TestAuthMiddleware_TenantCanonico(t *testing.T) {
	app := buildAPI(t, nil)

	resp, _ := call(t, app, http.MethodPost, "/api/invoices", "admin", map[string]any{"subtotal": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	auth := signedToken(t, func(c gojwt.MapClaims) { c["company_id"] = strings.ToUpper(testCompanyID) })
	resp, env := send(t, app, http.MethodGet, "/api/invoices", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.InvoiceListResponse
	decodeData(t, env, &list)
	assert.Equal(t, 1, list.Page.Total)
}
