package jwt_test

import (
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repairshop-api/pkg/jwt"
)

const (
	secret    = "secreto-de-prueba"
	issuer    = "identidad-taller"
	userID    = "00000000-0000-0000-0000-000000000001"
	companyID = "0f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
)

func newService(t *testing.T, maxAge time.Duration) *jwt.Service {
	t.Helper()
	s, err := jwt.New(jwt.Config{Secret: secret, Issuer: issuer, MaxAge: maxAge})
	require.NoError(t, err)
	return s
}

// sign firma claims arbitrarios para simular tokens de otros emisores.
func sign(t *testing.T, method gojwt.SigningMethod, key string, claims gojwt.MapClaims) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func validClaims() gojwt.MapClaims {
	now := time.Now()
	return gojwt.MapClaims{
		"iss":        issuer,
		"sub":        userID,
		"iat":        now.Unix(),
		"exp":        now.Add(time.Hour).Unix(),
		"user_id":    userID,
		"company_id": companyID,
		"role":       "cashier",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Issue / Parse
// ──────────────────────────────────────────────────────────────────────────────

func TestNew_SecretVacioFalla(t *testing.T) {
	_, err := jwt.New(jwt.Config{Issuer: issuer})
	assert.Error(t, err)
}

func TestIssueYParse_DevuelveIdentidad(t *testing.T) {
	s := newService(t, 30*time.Minute)
	tok, err := s.Issue(jwt.Identity{UserID: userID, CompanyID: companyID, Role: "cashier"})
	require.NoError(t, err)

	id, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, jwt.Identity{UserID: userID, CompanyID: companyID, Role: "cashier"}, id)
}

func TestParse_CompanyIDCanonico(t *testing.T) {
	s := newService(t, 0)
	claims := validClaims()
	claims["company_id"] = strings.ToUpper(companyID)

	id, err := s.Parse(sign(t, gojwt.SigningMethodHS256, secret, claims))
	require.NoError(t, err)
	assert.Equal(t, companyID, id.CompanyID, "el tenant se normaliza a minúsculas")
}

func TestParse_SinUserIDUsaSubject(t *testing.T) {
	s := newService(t, 0)
	claims := validClaims()
	delete(claims, "user_id")

	id, err := s.Parse(sign(t, gojwt.SigningMethodHS256, secret, claims))
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos
// ──────────────────────────────────────────────────────────────────────────────

func TestParse_Rechazos(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(gojwt.MapClaims)
		method gojwt.SigningMethod
		key    string
		want   error
	}{
		{
			name:   "emisor distinto",
			mutate: func(c gojwt.MapClaims) { c["iss"] = "otro-servicio" },
			want:   jwt.ErrInvalidToken,
		},
		{
			name:   "sin emisor",
			mutate: func(c gojwt.MapClaims) { delete(c, "iss") },
			want:   jwt.ErrInvalidToken,
		},
		{
			name:   "vencido",
			mutate: func(c gojwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() },
			want:   jwt.ErrInvalidToken,
		},
		{
			name:   "sin exp",
			mutate: func(c gojwt.MapClaims) { delete(c, "exp") },
			want:   jwt.ErrInvalidToken,
		},
		{
			name: "emitido hace más de la antigüedad máxima",
			mutate: func(c gojwt.MapClaims) {
				c["iat"] = time.Now().Add(-2 * time.Hour).Unix()
				c["exp"] = time.Now().Add(24 * time.Hour).Unix()
			},
			want: jwt.ErrInvalidToken,
		},
		{
			name:   "sin iat",
			mutate: func(c gojwt.MapClaims) { delete(c, "iat") },
			want:   jwt.ErrInvalidToken,
		},
		{
			name:   "secreto incorrecto",
			mutate: func(gojwt.MapClaims) {},
			key:    "otro-secreto",
			want:   jwt.ErrInvalidToken,
		},
		{
			name:   "algoritmo no permitido",
			mutate: func(gojwt.MapClaims) {},
			method: gojwt.SigningMethodHS512,
			want:   jwt.ErrInvalidToken,
		},
		{
			name: "sin usuario",
			mutate: func(c gojwt.MapClaims) {
				delete(c, "user_id")
				delete(c, "sub")
			},
			want: jwt.ErrInvalidToken,
		},
		{
			name:   "sin company_id",
			mutate: func(c gojwt.MapClaims) { delete(c, "company_id") },
			want:   jwt.ErrMissingTenant,
		},
		{
			name:   "company_id que no es uuid",
			mutate: func(c gojwt.MapClaims) { c["company_id"] = "empresa-1" },
			want:   jwt.ErrMissingTenant,
		},
	}

	s := newService(t, time.Hour)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := validClaims()
			tc.mutate(claims)
			method := tc.method
			if method == nil {
				method = gojwt.SigningMethodHS256
			}
			key := tc.key
			if key == "" {
				key = secret
			}

			_, err := s.Parse(sign(t, method, key, claims))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParse_SinAntiguedadMaximaAceptaIatViejo(t *testing.T) {
	s := newService(t, 0)
	claims := validClaims()
	claims["iat"] = time.Now().Add(-48 * time.Hour).Unix()

	_, err := s.Parse(sign(t, gojwt.SigningMethodHS256, secret, claims))
	assert.NoError(t, err)
}

func TestIssue_VenceSegunReloj(t *testing.T) {
	s := newService(t, 10*time.Minute)
	past := time.Now().Add(-time.Hour)
	tok, err := s.WithClock(func() time.Time { return past }).Issue(jwt.Identity{UserID: userID, CompanyID: companyID, Role: "admin"})
	require.NoError(t, err)

	_, err = newService(t, 10*time.Minute).Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
