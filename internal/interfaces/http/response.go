package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
)

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(dto.Envelope{Success: true, Data: data})
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.Envelope{
		Error: &dto.ErrorResponse{Code: code, Message: message},
	})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
}

// respondError traduce errores de dominio a status + código estable.
// Los errores no clasificados se registran y responden 500 sin detalle interno.
func respondError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]dto.FieldErrorResponse, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, dto.FieldErrorResponse{Field: f.Field, Message: f.Message})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.Envelope{
			Error: &dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Errors: fields},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "no autenticado")
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado")
	}

	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("company_id", GetCompanyID(c)).
		Interface("request_id", c.Locals("requestid")).
		Msg("error interno")
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", "error interno del servidor")
}

// tenant devuelve company_id; responde 401 si el token no lo trae.
func tenant(c *fiber.Ctx) (string, bool) {
	companyID := GetCompanyID(c)
	return companyID, companyID != ""
}

func unauthorized(c *fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido")
}
