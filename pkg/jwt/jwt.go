// Package jwt valida los tokens que emite el servicio de identidad del taller.
// Issue existe para herramientas de demo y tests; en producción esta API solo
// consume tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken firma, emisor, vencimiento o formato inválidos.
	ErrInvalidToken = errors.New("jwt: token inválido")
	// ErrMissingTenant el token no trae un company_id utilizable.
	ErrMissingTenant = errors.New("jwt: token sin company_id válido")
)

const defaultTTL = 60 * time.Minute

// Identity usuario autenticado: tenant, usuario y rol del taller.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string // "admin" | "manager" | "cashier" | "technician"
}

type claims struct {
	gojwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// Config parámetros del servicio. Issuer vacío no valida emisor.
// MaxAge > 0 rechaza tokens emitidos (iat) hace más de MaxAge aunque su exp
// sea posterior.
type Config struct {
	Secret string
	Issuer string
	MaxAge time.Duration
}

// Service firma y valida tokens HS256.
type Service struct {
	secret []byte
	issuer string
	maxAge time.Duration
	now    func() time.Time
}

// New construye el servicio; el secreto es obligatorio.
func New(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret vacío")
	}
	return &Service{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		maxAge: cfg.MaxAge,
		now:    time.Now,
	}, nil
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue firma un token para id con el emisor configurado. Vence a los MaxAge
// (una hora si no hay MaxAge).
func (s *Service) Issue(id Identity) (string, error) {
	now := s.now()
	ttl := s.maxAge
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id.UserID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    id.UserID,
		CompanyID: id.CompanyID,
		Role:      id.Role,
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Parse valida firma, algoritmo, emisor, exp (obligatorio) y antigüedad.
// CompanyID sale en forma canónica de uuid.
func (s *Service) Parse(token string) (Identity, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}
	if s.maxAge > 0 {
		opts = append(opts, gojwt.WithIssuedAt())
	}

	var c claims
	_, err := gojwt.ParseWithClaims(token, &c, func(*gojwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if s.maxAge > 0 {
		if c.IssuedAt == nil || s.now().Sub(c.IssuedAt.Time) > s.maxAge {
			return Identity{}, fmt.Errorf("%w: emitido hace más de %s", ErrInvalidToken, s.maxAge)
		}
	}

	userID := c.UserID
	if userID == "" {
		userID = c.Subject
	}
	if userID == "" {
		return Identity{}, fmt.Errorf("%w: sin user_id", ErrInvalidToken)
	}
	companyID, err := uuid.Parse(c.CompanyID)
	if err != nil {
		return Identity{}, ErrMissingTenant
	}
	return Identity{UserID: userID, CompanyID: companyID.String(), Role: c.Role}, nil
}
