package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecommerce-checkout/checkout-services/internal/payment/gateway"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/handlers"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/outbox"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/repository"
	"github.com/ecommerce-checkout/checkout-services/internal/payment/service"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/logging"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/messaging"
	"github.com/ecommerce-checkout/checkout-services/internal/shared/metrics"
)

func main() {
	log := logging.MustNewLogger("payment-service", getEnvOrDefault("APP_ENV", "development"))
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paymentStore := repository.NewMemoryPaymentStore()
	customerDir := repository.NewMemoryCustomerDirectory()
	repository.SeedDemoCustomers(customerDir)

	successRate := getEnvFloat("GATEWAY_SUCCESS_RATE", 0.95)
	processing := time.Duration(getEnvInt("GATEWAY_PROCESSING_MS", 2000)) * time.Millisecond
	gw := gateway.NewSimulatedGateway(successRate, processing)

	orderServiceURL := getEnvOrDefault("ORDER_SERVICE_URL", "http://localhost:8001")
	dispatcher := outbox.NewDispatcher(outbox.NewHTTPSender(orderServiceURL), log)
	dispatcher.Start()

	// Broker mirroring is opt-in; without RABBITMQ_HOST the service runs
	// on the HTTP callback alone.
	var events service.EventPublisher
	rabbitConfig := messaging.NewRabbitMQConfig()
	if rabbitConfig.Enabled() {
		rabbitClient := messaging.NewRabbitMQClient(rabbitConfig, log)
		if err := rabbitClient.Connect(); err != nil {
			log.Fatal("connecting to RabbitMQ", zap.Error(err))
		}
		defer rabbitClient.Close()
		events = messaging.NewPublisher(rabbitClient)
		log.Info("payment event mirroring enabled", zap.String("exchange", rabbitConfig.Exchange))
	}

	paymentService := service.NewPaymentService(paymentStore, customerDir, gw, dispatcher, events, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	httpMetrics := metrics.NewHTTPMetrics("payment-service", registry)

	app := setupFiberApp(log)
	app.Use(httpMetrics.Middleware())
	paymentHandler.RegisterRoutes(app)
	app.Get("/metrics", metrics.Handler(registry))

	port := getEnvOrDefault("PORT", "8002")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("payment service listening",
			zap.String("port", port),
			zap.Float64("gateway_success_rate", successRate),
			zap.String("order_service_url", orderServiceURL))
		return app.Listen(":" + port)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("payment service shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return err
		}
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return dispatcher.Stop(drainCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("payment service exited", zap.Error(err))
	}
}

func setupFiberApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Payment Service v1.0",
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
