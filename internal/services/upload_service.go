package services

import (
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"Musebox/internal/config"
	"Musebox/internal/helpers"
)

// UploadService stores uploaded images and returns their relative paths.
// Character and tag images land under the data directory; LoRA previews
// land next to the model file they belong to.
type UploadService interface {
	SaveCharacterImage(fileHeader *multipart.FileHeader) (string, error)
	SaveTagImage(tag string, fileHeader *multipart.FileHeader) (string, error)
	SavePreview(loraPath string, fileHeader *multipart.FileHeader) (string, error)
}

type uploadServiceImpl struct {
	configuration *config.Configuration
	logService    LogService
}

func NewUploadService(configuration *config.Configuration, logService LogService) UploadService {
	return &uploadServiceImpl{
		configuration: configuration,
		logService:    logService,
	}
}

var imageUploadExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".mp4":  true,
	".webm": true,
}

func checkImageExtension(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !imageUploadExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}
	return ext, nil
}

func (s *uploadServiceImpl) saveUnderData(subdir, name string, fileHeader *multipart.FileHeader) (string, error) {
	relPath := path.Join("uploads", subdir, name)
	abs, err := helpers.WithinRoot(s.configuration.Storage.DataPath, relPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrForbidden, relPath)
	}
	if _, err := helpers.SaveUploadedFile(fileHeader, abs); err != nil {
		return "", err
	}
	return relPath, nil
}

func (s *uploadServiceImpl) SaveCharacterImage(fileHeader *multipart.FileHeader) (string, error) {
	ext, err := checkImageExtension(fileHeader.Filename)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("character-%d%s", time.Now().UnixNano(), ext)
	return s.saveUnderData("characters", name, fileHeader)
}

func (s *uploadServiceImpl) SaveTagImage(tag string, fileHeader *multipart.FileHeader) (string, error) {
	ext, err := checkImageExtension(fileHeader.Filename)
	if err != nil {
		return "", err
	}
	safeTag := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, tag)
	name := fmt.Sprintf("%s-%d%s", safeTag, time.Now().UnixNano(), ext)
	return s.saveUnderData("tags", name, fileHeader)
}

// SavePreview writes the image next to the model file, sharing its
// basename so the scanner picks it up as the preview sibling.
func (s *uploadServiceImpl) SavePreview(loraPath string, fileHeader *multipart.FileHeader) (string, error) {
	ext, err := checkImageExtension(fileHeader.Filename)
	if err != nil {
		return "", err
	}
	rel := helpers.NormalizePath(loraPath)
	previewRel := path.Join(path.Dir(rel), helpers.BaseName(path.Base(rel))+ext)
	abs, err := helpers.WithinRoot(s.configuration.Storage.LoraPath, previewRel)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrForbidden, loraPath)
	}
	if _, err := helpers.SaveUploadedFile(fileHeader, abs); err != nil {
		return "", err
	}
	return previewRel, nil
}
