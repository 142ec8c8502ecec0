package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Invoices       *InvoiceHandler
	CashDrawer     *CashDrawerHandler
	RateLimiter    *TenantRateLimiter // nil = sin límite
	Tokens         *jwt.Service // secreto, emisor y antigüedad máxima de JWT_*
	RequestTimeout time.Duration
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	chain := []fiber.Handler{AuthMiddleware(deps.Tokens)}
	if deps.RateLimiter != nil {
		chain = append(chain, deps.RateLimiter.Middleware())
	}
	chain = append(chain, RequestTimeout(deps.RequestTimeout))

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", chain...)

	anyRole := RequireRole(RoleAdmin, RoleManager, RoleCashier, RoleTechnician)
	cashiers := RequireRole(RoleAdmin, RoleManager, RoleCashier)
	managers := RequireRole(RoleAdmin, RoleManager)

	// Invoices
	invoices := protected.Group("/invoices")
	ih := deps.Invoices
	invoices.Get("/", anyRole, ih.List)
	invoices.Post("/", anyRole, ih.Create)
	invoices.Get("/:id", anyRole, ih.Get)
	invoices.Put("/:id", anyRole, ih.Update)
	invoices.Delete("/:id", managers, ih.Delete)
	invoices.Get("/:id/pdf", anyRole, ih.DownloadPDF)
	invoices.Post("/:id/items", anyRole, ih.AddItem)
	invoices.Put("/:id/items/:itemId", anyRole, ih.UpdateItem)
	invoices.Delete("/:id/items/:itemId", anyRole, ih.RemoveItem)
	invoices.Post("/:id/paid", cashiers, ih.MarkPaid)
	invoices.Post("/:id/payments/cash", cashiers, ih.CaptureCash)
	invoices.Post("/:id/payments/card", cashiers, ih.CaptureCard)

	// Cash drawer: rutas fijas antes de /:id
	drawer := protected.Group("/cash-drawer")
	dh := deps.CashDrawer
	drawer.Post("/open", cashiers, dh.Open)
	drawer.Get("/current", cashiers, dh.Current)
	drawer.Get("/history", managers, dh.History)
	drawer.Post("/:id/close", cashiers, dh.Close)
	drawer.Get("/:id", cashiers, dh.Get)
}
