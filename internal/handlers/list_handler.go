package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"Musebox/internal/services"
)

type ListHandler struct {
	service services.CharacterService
}

func NewListHandler(service services.CharacterService) *ListHandler {
	return &ListHandler{service: service}
}

func (h *ListHandler) GetLists(c *fiber.Ctx) error {
	lists, err := h.service.GetLists()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": "could not list favorite lists"})
	}
	if lists == nil {
		lists = []string{}
	}
	return c.JSON(lists)
}

func (h *ListHandler) CreateList(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "name is required"})
	}
	if err := h.service.CreateList(req.Name); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.SendStatus(http.StatusCreated)
}

func (h *ListHandler) RenameList(c *fiber.Ctx) error {
	var req struct {
		NewName string `json:"newName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if req.NewName == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "newName is required"})
	}
	if err := h.service.RenameList(c.Params("name"), req.NewName); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *ListHandler) DeleteList(c *fiber.Ctx) error {
	if err := h.service.DeleteList(c.Params("name")); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.SendStatus(http.StatusNoContent)
}
