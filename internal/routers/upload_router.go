package routers

import (
	"github.com/gofiber/fiber/v2"

	"Musebox/internal/handlers"
)

func SetupUploadRouter(app *fiber.App, uploadHandler *handlers.UploadHandler) {
	app.Post("/upload/character-image", uploadHandler.UploadCharacterImage)
	app.Post("/upload/preview", uploadHandler.UploadPreview)
	app.Post("/upload/tag-image", uploadHandler.UploadTagImage)
}
