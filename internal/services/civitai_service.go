package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"Musebox/internal/config"
	"Musebox/internal/helpers"
	"Musebox/internal/models"
	"Musebox/internal/store"
)

// CivitaiService resolves model descriptions, preferring the local sidecar,
// then the in-memory cache, then a live registry call. Freshly fetched data
// is written back to the sidecar and the metadata overlay as a side effect.
type CivitaiService interface {
	ModelDescription(ctx context.Context, modelID int64, loraPath string, refresh bool) (*models.ModelDescription, error)
}

// DescriptionCache lives for the process lifetime; nothing is ever evicted.
type DescriptionCache struct {
	mutex   sync.RWMutex
	entries map[int64]*models.ModelDescription
}

func NewDescriptionCache() *DescriptionCache {
	return &DescriptionCache{entries: map[int64]*models.ModelDescription{}}
}

func (c *DescriptionCache) Get(modelID int64) (*models.ModelDescription, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	d, ok := c.entries[modelID]
	return d, ok
}

func (c *DescriptionCache) Put(modelID int64, d *models.ModelDescription) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[modelID] = d
}

type civitaiServiceImpl struct {
	configuration *config.Configuration
	metaStore     store.MetaStore
	cache         *DescriptionCache
	logService    LogService
	client        *http.Client
}

func NewCivitaiService(configuration *config.Configuration, metaStore store.MetaStore, cache *DescriptionCache, logService LogService) CivitaiService {
	return &civitaiServiceImpl{
		configuration: configuration,
		metaStore:     metaStore,
		cache:         cache,
		logService:    logService,
		client: &http.Client{
			Timeout: time.Duration(configuration.Civitai.TimeoutSeconds) * time.Second,
		},
	}
}

func (s *civitaiServiceImpl) ModelDescription(ctx context.Context, modelID int64, loraPath string, refresh bool) (*models.ModelDescription, error) {
	if !refresh {
		if desc := s.fromSidecar(modelID, loraPath); desc != nil {
			return desc, nil
		}
		if desc, ok := s.cache.Get(modelID); ok {
			return desc, nil
		}
	}

	desc, err := s.fetch(ctx, modelID)
	if err != nil {
		// prefer a stale sidecar over a hard failure
		if fallback := s.fromSidecar(modelID, loraPath); fallback != nil {
			s.logService.Log.WithFields(logrus.Fields{
				"modelId": modelID,
				"error":   err.Error(),
			}).Warn("registry fetch failed, serving sidecar")
			return fallback, nil
		}
		return nil, err
	}

	s.cache.Put(modelID, desc)
	s.writeBack(modelID, loraPath, desc)
	return desc, nil
}

// sidecarCandidates returns the possible sidecar paths for loraPath,
// following the same suffix precedence the scanner uses.
func (s *civitaiServiceImpl) sidecarCandidates(loraPath string) ([]string, error) {
	abs, err := helpers.WithinRoot(s.configuration.Storage.LoraPath, loraPath)
	if err != nil {
		return nil, err
	}
	base := filepath.Join(filepath.Dir(abs), helpers.BaseName(filepath.Base(abs)))
	candidates := make([]string, 0, len(sidecarSuffixes))
	for _, suffix := range sidecarSuffixes {
		candidates = append(candidates, base+suffix)
	}
	return candidates, nil
}

func (s *civitaiServiceImpl) fromSidecar(modelID int64, loraPath string) *models.ModelDescription {
	if loraPath == "" {
		return nil
	}
	candidates, err := s.sidecarCandidates(loraPath)
	if err != nil {
		return nil
	}
	for _, sidecarFile := range candidates {
		data, err := os.ReadFile(sidecarFile)
		if err != nil {
			continue
		}
		var info models.SidecarInfo
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}
		if info.Description == "" && len(info.Images) == 0 {
			continue
		}
		return &models.ModelDescription{
			ModelID:      modelID,
			Description:  info.Description,
			TrainedWords: info.TrainedWords,
			Images:       info.ImageURLs(),
			ModelURL:     info.ModelURL,
			Source:       "sidecar",
		}
	}
	return nil
}

// civitaiModelResponse covers the slice of the registry payload we use.
// Image entries are normalized by models.CivitaiImage at decode time.
type civitaiModelResponse struct {
	ID            int64  `json:"id"`
	Description   string `json:"description"`
	ModelVersions []struct {
		BaseModel    string                `json:"baseModel"`
		TrainedWords []string              `json:"trainedWords"`
		Images       []models.CivitaiImage `json:"images"`
	} `json:"modelVersions"`
}

func (s *civitaiServiceImpl) fetch(ctx context.Context, modelID int64) (*models.ModelDescription, error) {
	url := fmt.Sprintf("%s/models/%d", s.configuration.Civitai.BaseURL, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("registry returned %d: %s", resp.StatusCode, string(body))
	}

	var payload civitaiModelResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed registry response: %w", err)
	}

	desc := &models.ModelDescription{
		ModelID:     modelID,
		Description: payload.Description,
		ModelURL:    fmt.Sprintf("https://civitai.com/models/%d", modelID),
		Source:      "civitai",
	}
	if len(payload.ModelVersions) > 0 {
		version := payload.ModelVersions[0]
		desc.TrainedWords = version.TrainedWords
		for _, img := range version.Images {
			if img.URL != "" {
				desc.Images = append(desc.Images, img.URL)
			}
		}
	}
	return desc, nil
}

// writeBack persists freshly fetched registry data into the sidecar and
// the metadata overlay. Failures only log; the caller already has the data.
func (s *civitaiServiceImpl) writeBack(modelID int64, loraPath string, desc *models.ModelDescription) {
	if loraPath == "" {
		return
	}
	candidates, err := s.sidecarCandidates(loraPath)
	if err != nil {
		return
	}
	// update the sidecar that already exists; fall back to the
	// preferred suffix for a fresh one
	sidecarFile := candidates[0]
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			sidecarFile = candidate
			break
		}
	}
	images := make([]models.CivitaiImage, 0, len(desc.Images))
	for _, url := range desc.Images {
		images = append(images, models.CivitaiImage{URL: url})
	}
	info := models.SidecarInfo{
		ModelID:      modelID,
		TrainedWords: desc.TrainedWords,
		Images:       images,
		Description:  desc.Description,
		ModelURL:     desc.ModelURL,
	}
	if err := store.WriteDocument(sidecarFile, info); err != nil {
		s.logService.Log.WithFields(logrus.Fields{
			"file":  sidecarFile,
			"error": err.Error(),
		}).Warn("failed to write sidecar")
	}

	imageURLs := desc.Images
	civitaiURL := desc.ModelURL
	err = s.metaStore.Merge(loraPath, models.MetaPatch{
		CivitaiImages: &imageURLs,
		CivitaiURL:    &civitaiURL,
	})
	if err != nil {
		s.logService.Log.WithFields(logrus.Fields{
			"path":  loraPath,
			"error": err.Error(),
		}).Warn("failed to cache registry data in metadata")
	}
}
