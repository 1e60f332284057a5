package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"Musebox/internal/models"
	"Musebox/internal/services"
)

type CharacterHandler struct {
	service services.CharacterService
}

func NewCharacterHandler(service services.CharacterService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

func (h *CharacterHandler) ListCharacters(c *fiber.Ctx) error {
	characters, err := h.service.GetCharacters()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": "could not list characters"})
	}
	if characters == nil {
		characters = []models.Character{}
	}
	return c.JSON(characters)
}

func (h *CharacterHandler) GetCharacterByID(c *fiber.Ctx) error {
	character, err := h.service.GetCharacterByID(c.Params("id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(character)
}

func (h *CharacterHandler) CreateCharacter(c *fiber.Ctx) error {
	var req models.Character
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "name is required"})
	}
	character, err := h.service.CreateCharacter(req)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(character)
}

func (h *CharacterHandler) UpdateCharacter(c *fiber.Ctx) error {
	var req models.Character
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	character, err := h.service.UpdateCharacter(c.Params("id"), req)
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(character)
}

func (h *CharacterHandler) DeleteCharacter(c *fiber.Ctx) error {
	if err := h.service.DeleteCharacter(c.Params("id")); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *CharacterHandler) ReorderCharacters(c *fiber.Ctx) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if err := h.service.ReorderCharacters(req.IDs); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *CharacterHandler) CombinedPrompt(c *fiber.Ctx) error {
	prompt, err := h.service.CombinedPrompt(c.Params("id"), c.Query("variation"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"prompt": prompt})
}
