package routers

import (
	"github.com/gofiber/fiber/v2"

	"Musebox/internal/handlers"
)

func SetupLoraRouter(app *fiber.App, loraHandler *handlers.LoraHandler) {
	loras := app.Group("/loras")
	loras.Get("/files", loraHandler.GetFiles)
	loras.Get("/image", loraHandler.GetImage)
	loras.Put("/meta", loraHandler.PutMeta)
	loras.Post("/meta/batch", loraHandler.PostMetaBatch)
	loras.Post("/folder", loraHandler.CreateFolder)
	loras.Put("/rename", loraHandler.Rename)
	loras.Delete("/delete", loraHandler.Delete)
	loras.Post("/move", loraHandler.Move)
	loras.Post("/move-batch", loraHandler.MoveBatch)
	loras.Post("/reorder", loraHandler.Reorder)
	loras.Get("/duplicates", loraHandler.Duplicates)
	loras.Get("/model-description", loraHandler.ModelDescription)
	loras.Post("/analyze-tags", loraHandler.AnalyzeTags)
}
