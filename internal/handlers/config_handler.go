package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"Musebox/internal/store"
)

type ConfigHandler struct {
	settings store.SettingsStore
}

func NewConfigHandler(settings store.SettingsStore) *ConfigHandler {
	return &ConfigHandler{settings: settings}
}

func (h *ConfigHandler) GetConfig(c *fiber.Ctx) error {
	settings, err := h.settings.Get()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(settings)
}

func (h *ConfigHandler) PutConfig(c *fiber.Ctx) error {
	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if err := h.settings.Put(req); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *ConfigHandler) Health(c *fiber.Ctx) error {
	return c.JSON(map[string]interface{}{"status": "ok"})
}
