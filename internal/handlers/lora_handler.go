package handlers

import (
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"Musebox/internal/config"
	"Musebox/internal/helpers"
	"Musebox/internal/mapper"
	"Musebox/internal/services"
	"Musebox/internal/store"
)

type LoraHandler struct {
	scanner       services.ScannerService
	tree          services.TreeService
	duplicates    services.DuplicateService
	reorder       services.ReorderService
	civitai       services.CivitaiService
	tagger        services.TaggerService
	metaStore     store.MetaStore
	configuration *config.Configuration
}

func NewLoraHandler(
	scanner services.ScannerService,
	tree services.TreeService,
	duplicates services.DuplicateService,
	reorder services.ReorderService,
	civitai services.CivitaiService,
	tagger services.TaggerService,
	metaStore store.MetaStore,
	configuration *config.Configuration,
) *LoraHandler {
	return &LoraHandler{
		scanner:       scanner,
		tree:          tree,
		duplicates:    duplicates,
		reorder:       reorder,
		civitai:       civitai,
		tagger:        tagger,
		metaStore:     metaStore,
		configuration: configuration,
	}
}

func (h *LoraHandler) GetFiles(c *fiber.Ctx) error {
	files, meta, err := h.scanner.Scan()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{
		"files":   mapper.ToAssetGetDTOs(files),
		"meta":    meta,
		"rootDir": h.scanner.RootDir(),
	})
}

// GetImage streams a preview image or video under the storage root. When
// the exact name is missing it falls back to the same basename with any
// known image extension.
func (h *LoraHandler) GetImage(c *fiber.Ctx) error {
	relPath := c.Query("path")
	if relPath == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "path is required"})
	}
	abs, err := helpers.WithinRoot(h.configuration.Storage.LoraPath, relPath)
	if err != nil {
		return c.Status(http.StatusForbidden).JSON(map[string]interface{}{"error": "invalid path"})
	}
	if _, err := os.Stat(abs); err != nil {
		found := false
		base := helpers.BaseName(abs)
		for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp", ".gif", ".mp4", ".webm"} {
			if _, err := os.Stat(base + ext); err == nil {
				abs = base + ext
				found = true
				break
			}
		}
		if !found {
			return c.Status(http.StatusNotFound).JSON(map[string]interface{}{"error": "image not found"})
		}
	}
	return c.SendFile(abs)
}

func (h *LoraHandler) PutMeta(c *fiber.Ctx) error {
	var req store.PathPatch
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if req.Path == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "path is required"})
	}
	if err := h.metaStore.Merge(req.Path, req.Patch); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *LoraHandler) PostMetaBatch(c *fiber.Ctx) error {
	var req struct {
		Items []store.PathPatch `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if err := h.metaStore.MergeBatch(req.Items); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *LoraHandler) CreateFolder(c *fiber.Ctx) error {
	var req struct {
		Parent string `json:"parent"`
		Name   string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "name is required"})
	}
	if err := h.tree.CreateFolder(req.Parent, req.Name); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *LoraHandler) Rename(c *fiber.Ctx) error {
	var req struct {
		Path    string `json:"path"`
		NewName string `json:"newName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if req.Path == "" || req.NewName == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "path and newName are required"})
	}
	if err := h.tree.Rename(req.Path, req.NewName); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *LoraHandler) Delete(c *fiber.Ctx) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if req.Path == "" {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "path is required"})
	}
	if err := h.tree.Delete(req.Path); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *LoraHandler) Move(c *fiber.Ctx) error {
	var req struct {
		Source string `json:"source"`
		Dest   string `json:"dest"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if err := h.tree.Move(req.Source, req.Dest); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

// MoveBatch reports success when at least one item moved; collided items
// come back in `failed`.
func (h *LoraHandler) MoveBatch(c *fiber.Ctx) error {
	var req struct {
		Sources []string `json:"sources"`
		Dest    string   `json:"dest"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	moved, failures, err := h.tree.MoveBatch(req.Sources, req.Dest)
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{
		"success": moved > 0,
		"moved":   moved,
		"failed":  failures,
	})
}

func (h *LoraHandler) Reorder(c *fiber.Ctx) error {
	var req struct {
		Sources []string `json:"sources"`
		Target  string   `json:"target"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	if err := h.reorder.Reorder(req.Sources, req.Target); err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"success": true})
}

func (h *LoraHandler) Duplicates(c *fiber.Ctx) error {
	files, err := h.scanner.FlatFiles()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(map[string]interface{}{"duplicates": h.duplicates.FindDuplicates(files)})
}

func (h *LoraHandler) ModelDescription(c *fiber.Ctx) error {
	modelID, err := strconv.ParseInt(c.Query("modelId"), 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": "invalid modelId"})
	}
	loraPath := c.Query("loraPath")
	if loraPath != "" && !isContained(h.configuration.Storage.LoraPath, loraPath) {
		return c.Status(http.StatusForbidden).JSON(map[string]interface{}{"error": "invalid loraPath"})
	}
	refresh := c.Query("refresh") == "true"

	desc, err := h.civitai.ModelDescription(c.Context(), modelID, loraPath, refresh)
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(desc)
}

func (h *LoraHandler) AnalyzeTags(c *fiber.Ctx) error {
	var req struct {
		TriggerWords []string `json:"triggerWords"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(map[string]interface{}{"error": err.Error()})
	}
	analysis, err := h.tagger.AnalyzeTags(c.Context(), req.TriggerWords)
	if err != nil {
		return c.Status(statusFor(err)).JSON(map[string]interface{}{"error": err.Error()})
	}
	return c.JSON(analysis)
}

func isContained(root, relPath string) bool {
	_, err := helpers.WithinRoot(root, path.Clean(relPath))
	return err == nil
}
