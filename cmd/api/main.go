package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/repairshop-api/internal/application/billing"
	"github.com/jhoicas/repairshop-api/internal/application/cashdrawer"
	"github.com/jhoicas/repairshop-api/internal/domain/invoicing"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
	infraemail "github.com/jhoicas/repairshop-api/internal/infrastructure/email"
	"github.com/jhoicas/repairshop-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/repairshop-api/internal/infrastructure/pdf"
	"github.com/jhoicas/repairshop-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/repairshop-api/internal/interfaces/http"
	"github.com/jhoicas/repairshop-api/pkg/config"
	"github.com/jhoicas/repairshop-api/pkg/jwt"
	"github.com/jhoicas/repairshop-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// stores agrupa los puertos de persistencia del driver elegido.
type stores struct {
	tx interface {
		billing.BillingTxRunner
		cashdrawer.TxRunner
	}
	invoices  repository.InvoiceRepository
	drawers   repository.CashDrawerRepository
	customers repository.CustomerRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)

	var notifier *billing.AsyncNotifier
	if cfg.SMTP.Enabled() {
		smtp := infraemail.NewSMTPNotifier(cfg.SMTP, cfg.App.Name, pdfGenerator, log.Zerolog())
		notifier = billing.NewAsyncNotifier(smtp, st.customers, log.Zerolog())
	} else {
		log.Warn().Msg("SMTP_HOST vacío: notificaciones por email desactivadas")
	}

	numbers := invoicing.NewNumberGenerator(cfg.Billing.InvoiceNumberPrefix)
	invoiceUC := billing.NewInvoiceUseCase(st.tx, st.invoices, st.customers, numbers, notifier, log.Zerolog())
	itemUC := billing.NewItemUseCase(st.tx, log.Zerolog())
	paymentUC := billing.NewPaymentUseCase(st.tx, notifier, log.Zerolog())
	pdfUC := billing.NewPDFUseCase(st.invoices, st.customers, pdfGenerator)
	drawerUC := cashdrawer.NewUseCase(st.tx, st.drawers, log.Zerolog())

	tokens, err := jwt.New(jwt.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		MaxAge: cfg.JWT.MaxAge(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar JWT")
	}

	var limiter *httpRouter.TenantRateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = httpRouter.NewTenantRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		defer limiter.Stop()
	}

	// Immutable: los ids de ruta terminan guardados en el store en memoria.
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		Immutable:    true,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.HTTP.AllowOrigins}))
	app.Use(httpRouter.RequestLogger(log.WithComponent("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Repair Shop Billing API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Invoices:       httpRouter.NewInvoiceHandler(invoiceUC, itemUC, paymentUC, pdfUC),
		CashDrawer:     httpRouter.NewCashDrawerHandler(drawerUC),
		RateLimiter:    limiter,
		Tokens:         tokens,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	notifier.Wait()

	log.Info().Msg("aplicación detenida")
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		return &stores{
			tx:        mem,
			invoices:  mem.Invoices(),
			drawers:   mem.CashDrawers(),
			customers: mem.Customers(),
			close:     func() {},
		}, nil
	}

	if cfg.DB.MigrationsAuto {
		if err := postgres.MigrateUp(cfg.DB.ConnectionString()); err != nil {
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &stores{
		tx:        postgres.NewTxRunner(pool),
		invoices:  postgres.NewInvoiceRepository(pool),
		drawers:   postgres.NewCashDrawerRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		close:     pool.Close,
	}, nil
}
