package handlers

import (
	"github.com/andesco/catalogproxy/pkg/catalog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewApp wires the catalog endpoint and the operational routes.
func NewApp(lister catalog.Lister, cacheTime int) *fiber.App {
	app := fiber.New(fiber.Config{
		GETOnly:               true,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} - ${latency} ${method} ${path} ${queryParams} ${respHeader:X-Request-ID}\n",
	}))
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/api/douban", Catalog(lister, cacheTime))

	return app
}
