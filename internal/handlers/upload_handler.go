package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"Musebox/internal/services"
)

type UploadHandler struct {
	service services.UploadService
}

func NewUploadHandler(service services.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) UploadCharacterImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "Invalid file"})
	}
	relPath, err := h.service.SaveCharacterImage(fileHeader)
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(map[string]interface{}{"path": relPath})
}

func (h *UploadHandler) UploadTagImage(c *fiber.Ctx) error {
	tag := c.FormValue("tag")
	if tag == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "tag is required"})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "Invalid file"})
	}
	relPath, err := h.service.SaveTagImage(tag, fileHeader)
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(map[string]interface{}{"path": relPath})
}

func (h *UploadHandler) UploadPreview(c *fiber.Ctx) error {
	loraPath := c.FormValue("loraPath")
	if loraPath == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "loraPath is required"})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "Invalid file"})
	}
	relPath, err := h.service.SavePreview(loraPath, fileHeader)
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(map[string]interface{}{"path": relPath})
}
