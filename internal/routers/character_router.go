package routers

import (
	"github.com/gofiber/fiber/v2"

	"Musebox/internal/handlers"
)

func SetupCharacterRouter(app *fiber.App, characterHandler *handlers.CharacterHandler, listHandler *handlers.ListHandler) {
	app.Get("/characters", characterHandler.ListCharacters)
	app.Post("/characters", characterHandler.CreateCharacter)
	app.Put("/characters/order", characterHandler.ReorderCharacters)
	app.Get("/characters/:id", characterHandler.GetCharacterByID)
	app.Put("/characters/:id", characterHandler.UpdateCharacter)
	app.Delete("/characters/:id", characterHandler.DeleteCharacter)
	app.Get("/characters/:id/prompt", characterHandler.CombinedPrompt)

	app.Get("/lists", listHandler.GetLists)
	app.Post("/lists", listHandler.CreateList)
	app.Put("/lists/:name", listHandler.RenameList)
	app.Delete("/lists/:name", listHandler.DeleteList)
}
