package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-api/internal/application/billing"
	"github.com/jhoicas/repairshop-api/internal/application/dto"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	invoices *billing.InvoiceUseCase
	items    *billing.ItemUseCase
	payments *billing.PaymentUseCase
	pdf      *billing.PDFUseCase
}

// NewInvoiceHandler construye el handler. pdf puede ser nil (endpoint deshabilitado).
func NewInvoiceHandler(
	invoices *billing.InvoiceUseCase,
	items *billing.ItemUseCase,
	payments *billing.PaymentUseCase,
	pdf *billing.PDFUseCase,
) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, items: items, payments: payments, pdf: pdf}
}

// List lista las facturas del tenant.
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        customer_id  query  string  false  "Filtrar por cliente"
// @Param        ticket_id    query  string  false  "Filtrar por ticket"
// @Param        status       query  string  false  "draft|issued|paid|overdue|cancelled"
// @Param        limit        query  int     false  "Máx. 100 (default 20)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	in := dto.InvoiceListRequest{
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)},
		CustomerID:  c.Query("customer_id"),
		TicketID:    c.Query("ticket_id"),
		Status:      c.Query("status"),
	}
	out, err := h.invoices.List(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Get obtiene una factura con sus líneas.
// @Summary      Obtener factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	out, err := h.invoices.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Create crea una factura en borrador.
// @Summary      Crear factura
// @Description  Crea la factura en estado draft con número único. Impuesto y total se calculan salvo que vengan explícitos.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateInvoiceRequest  true  "Cabecera de la factura"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.invoices.Create(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// Update aplica un parche parcial a la cabecera y/o transiciona el estado.
// @Summary      Actualizar factura
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "ID de la factura"
// @Param        body  body      dto.UpdateInvoiceRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.invoices.Update(c.UserContext(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// Delete borra lógicamente la factura.
// @Summary      Eliminar factura
// @Tags         invoices
// @Security     Bearer
// @Param        id   path  string  true  "ID de la factura"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	if err := h.invoices.Delete(c.UserContext(), companyID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": c.Params("id"), "deleted": true})
}

// AddItem agrega una línea y recalcula los totales.
// @Summary      Agregar línea
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                        true  "ID de la factura"
// @Param        body  body      dto.CreateInvoiceItemRequest  true  "Línea"
// @Success      201   {object}  dto.InvoiceItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/items [post]
func (h *InvoiceHandler) AddItem(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.items.AddItem(c.UserContext(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusCreated, out)
}

// UpdateItem modifica una línea y recalcula los totales.
// @Router       /api/invoices/{id}/items/{itemId} [put]
func (h *InvoiceHandler) UpdateItem(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.UpdateInvoiceItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.items.UpdateItem(c.UserContext(), companyID, c.Params("id"), c.Params("itemId"), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// RemoveItem elimina una línea y recalcula los totales.
// @Router       /api/invoices/{id}/items/{itemId} [delete]
func (h *InvoiceHandler) RemoveItem(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	if err := h.items.RemoveItem(c.UserContext(), companyID, c.Params("id"), c.Params("itemId")); err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": c.Params("itemId"), "deleted": true})
}

// MarkPaid registra un pago recibido fuera del POS (transferencia, cheque...).
// @Summary      Marcar factura como pagada
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID de la factura"
// @Param        body  body      dto.MarkPaidRequest  true  "Datos del pago"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/paid [post]
func (h *InvoiceHandler) MarkPaid(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.MarkPaidRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.payments.MarkAsPaid(c.UserContext(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// CaptureCash cobra en efectivo y acredita la sesión de caja abierta.
// @Summary      Cobro en efectivo (POS)
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de la factura"
// @Param        body  body      dto.CashPaymentRequest  true  "Monto entregado y sesión de caja"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments/cash [post]
func (h *InvoiceHandler) CaptureCash(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.CashPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.payments.CaptureCash(c.UserContext(), companyID, GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// CaptureCard registra el resultado del procesador de tarjetas.
// @Summary      Cobro con tarjeta (POS)
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de la factura"
// @Param        body  body      dto.CardPaymentRequest  true  "Resultado del procesador"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments/card [post]
func (h *InvoiceHandler) CaptureCard(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	var in dto.CardPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.payments.CaptureCard(c.UserContext(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, out)
}

// DownloadPDF devuelve la factura imprimible.
// @Summary      Descargar PDF de la factura
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	companyID, authed := tenant(c)
	if !authed {
		return unauthorized(c)
	}
	if h.pdf == nil {
		return fail(c, fiber.StatusNotImplemented, "NOT_IMPLEMENTED", "generación de PDF no configurada")
	}
	content, filename, err := h.pdf.DownloadInvoicePDF(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(content)
}
