package server

import (
	"Musebox/cmd"
	"Musebox/internal/config"
	"Musebox/internal/routers"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func NewApp(server *cmd.Server, cfg *config.Configuration) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:   "Musebox",
	})

	app.Use(logger.New())

	routers.SetupRoutes(app, server)

	err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	return app
}
