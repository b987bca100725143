package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecommerce-checkout/checkout-services/internal/order/catalog"
	"github.com/ecommerce-checkout/checkout-services/internal/order/handlers"
	"github.com/ecommerce-checkout/checkout-services/internal/order/repository"
	"github.com/ecommerce-checkout/checkout-services/internal/order/service"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/logging"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/metrics"
)

func main() {
	log := logging.MustNewLogger("order-service", getEnvOrDefault("APP_ENV", "development"))
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalogStore := catalog.NewMemoryStore()
	if err := catalog.SeedDemoProducts(ctx, catalogStore); err != nil {
		log.Fatal("seeding products failed", zap.Error(err))
	}
	orderStore := repository.NewMemoryOrderStore()
	customerStore := repository.NewMemoryCustomerStore()
	if err := repository.SeedDemoCustomers(ctx, customerStore); err != nil {
		log.Fatal("seeding customers failed", zap.Error(err))
	}

	// The Postgres archive is a write-behind copy; the in-memory store
	// stays authoritative and the service runs fine without a database.
	var archive service.Archiver
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatal("opening database", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("pinging database", zap.Error(err))
		}
		pg := repository.NewPostgresArchive(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal("migrating archive schema", zap.Error(err))
		}
		archive = pg
		log.Info("order archive enabled")
	}

	orderService := service.NewOrderService(catalogStore, orderStore, customerStore, archive, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	httpMetrics := metrics.NewHTTPMetrics("order-service", registry)

	app := setupFiberApp(log)
	app.Use(httpMetrics.Middleware())
	orderHandler.RegisterRoutes(app)
	app.Get("/metrics", metrics.Handler(registry))

	port := getEnvOrDefault("PORT", "8001")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("order service listening", zap.String("port", port))
		return app.Listen(":" + port)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("order service shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("order service exited", zap.Error(err))
	}
}

func setupFiberApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Order Service v1.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Error("request failed",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err))
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))
	return app
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
