package routers

import (
	"github.com/gofiber/fiber/v2"

	"Musebox/cmd"
)

func SetupRoutes(app *fiber.App, server *cmd.Server) {
	app.Get("/health", server.ConfigHandler.Health)
	app.Get("/config", server.ConfigHandler.GetConfig)
	app.Put("/config", server.ConfigHandler.PutConfig)

	SetupLoraRouter(app, server.LoraHandler)
	SetupCharacterRouter(app, server.CharacterHandler, server.ListHandler)
	SetupUploadRouter(app, server.UploadHandler)
}
