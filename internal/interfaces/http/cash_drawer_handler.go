package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-api/internal/application/cashdrawer"
	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
)

// CashDrawerHandler maneja apertura, cierre y consulta de sesiones de caja.
type CashDrawerHandler struct {
	uc *cashdrawer.UseCase
}

// NewCashDrawerHandler construye el handler.
func NewCashDrawerHandler(uc *cashdrawer.UseCase) *CashDrawerHandler {
	return &CashDrawerHandler{uc: uc}
}

// Open abre una sesión de caja para la ubicación.
// @Summary      Abrir caja
// @Tags         cash-drawer
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.OpenCashDrawerRequest  true  "Ubicación y fondo inicial"
// @Success      201   {object}  dto.CashDrawerSessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cash-drawer/open [post]
func (h *CashDrawerHandler) Open(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.OpenCashDrawerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Open(c.UserContext(), companyID, GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// Close cierra la sesión con el arqueo contado.
// @Summary      Cerrar caja
// @Description  Calcula esperado = fondo inicial + ventas en efectivo y diferencia = contado - esperado.
// @Tags         cash-drawer
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "ID de la sesión"
// @Param        body  body      dto.CloseCashDrawerRequest  true  "Arqueo"
// @Success      200   {object}  dto.CashDrawerSessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cash-drawer/{id}/close [post]
func (h *CashDrawerHandler) Close(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.CloseCashDrawerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Close(c.UserContext(), companyID, GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Current devuelve la sesión abierta o null.
// @Summary      Caja actual
// @Tags         cash-drawer
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Ubicación (vacío = por defecto)"
// @Success      200  {object}  dto.CashDrawerSessionResponse
// @Router       /api/cash-drawer/current [get]
func (h *CashDrawerHandler) Current(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	out, err := h.uc.GetCurrent(c.UserContext(), companyID, optionalQuery(c, "location_id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// History lista sesiones pasadas y actuales.
// @Summary      Historial de caja
// @Tags         cash-drawer
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Ubicación"
// @Param        from         query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, inclusivo)"
// @Param        limit        query  int     false  "Máx. 100 (default 20)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.CashDrawerHistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/cash-drawer/history [get]
func (h *CashDrawerHandler) History(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	in := dto.CashDrawerHistoryRequest{
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)},
		LocationID:  optionalQuery(c, "location_id"),
	}
	verr := &domain.ValidationError{}
	var endOfDay bool
	in.From, _ = parseTimeQuery(c, "from", verr)
	in.To, endOfDay = parseTimeQuery(c, "to", verr)
	if err := verr.Err(); err != nil {
		return respondError(c, err)
	}
	if in.To != nil && endOfDay {
		to := in.To.Add(24*time.Hour - time.Nanosecond)
		in.To = &to
	}
	out, err := h.uc.History(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Get devuelve una sesión con su libro de movimientos.
// @Router       /api/cash-drawer/{id} [get]
func (h *CashDrawerHandler) Get(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

// parseTimeQuery acepta RFC3339 o fecha sola; dateOnly indica el segundo formato.
func parseTimeQuery(c *fiber.Ctx, key string, verr *domain.ValidationError) (t *time.Time, dateOnly bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, false
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, false
	}
	if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
		return &parsed, true
	}
	verr.Add(key, "fecha inválida, use RFC3339 o YYYY-MM-DD")
	return nil, false
}
