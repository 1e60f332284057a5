package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"Musebox/internal/config"
	"Musebox/internal/models"
	"Musebox/internal/store"
)

func newCivitaiFixture(t *testing.T, baseURL string) (*config.Configuration, store.MetaStore, CivitaiService) {
	t.Helper()
	cfg := &config.Configuration{
		Storage: config.StorageConfig{
			LoraPath: t.TempDir(),
			DataPath: t.TempDir(),
		},
		Civitai: config.CivitaiConfig{BaseURL: baseURL, TimeoutSeconds: 5},
	}
	metaStore := store.NewMetaStore(cfg)
	service := NewCivitaiService(cfg, metaStore, NewDescriptionCache(), testLogService())
	return cfg, metaStore, service
}

func TestCivitaiService_PrefersLocalSidecar(t *testing.T) {
	registryCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registryCalled = true
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg, _, service := newCivitaiFixture(t, server.URL)

	writeFile(t, cfg.Storage.LoraPath, "miku.safetensors", []byte("raw"))
	sidecar, _ := json.Marshal(map[string]interface{}{
		"modelId":     int64(42),
		"description": "a vocaloid",
		"images":      []interface{}{"https://img/1.png"},
	})
	writeFile(t, cfg.Storage.LoraPath, "miku.info", sidecar)

	desc, err := service.ModelDescription(context.Background(), 42, "miku.safetensors", false)
	assert.NoError(t, err)
	assert.Equal(t, "sidecar", desc.Source)
	assert.Equal(t, "a vocaloid", desc.Description)
	assert.False(t, registryCalled)
}

func TestCivitaiService_VendorSuffixedSidecarServedOffline(t *testing.T) {
	// registry unreachable: the server is closed before any request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cfg, _, service := newCivitaiFixture(t, server.URL)

	writeFile(t, cfg.Storage.LoraPath, "miku.safetensors", []byte("raw"))
	sidecar, _ := json.Marshal(map[string]interface{}{"description": "from sidecar"})
	writeFile(t, cfg.Storage.LoraPath, "miku.civitai.info", sidecar)

	desc, err := service.ModelDescription(context.Background(), 42, "miku.safetensors", false)
	assert.NoError(t, err)
	assert.Equal(t, "sidecar", desc.Source)
	assert.Equal(t, "from sidecar", desc.Description)
}

func TestCivitaiService_WriteBackUpdatesExistingSidecar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "description": "fresh"})
	}))
	defer server.Close()

	cfg, _, service := newCivitaiFixture(t, server.URL)
	writeFile(t, cfg.Storage.LoraPath, "miku.safetensors", []byte("raw"))
	stale, _ := json.Marshal(map[string]interface{}{"description": "stale"})
	writeFile(t, cfg.Storage.LoraPath, "miku.civitai.info", stale)

	_, err := service.ModelDescription(context.Background(), 42, "miku.safetensors", true)
	assert.NoError(t, err)

	// the vendor-suffixed sidecar is updated in place, no .info twin appears
	_, err = os.Stat(filepath.Join(cfg.Storage.LoraPath, "miku.info"))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(cfg.Storage.LoraPath, "miku.civitai.info"))
	assert.NoError(t, err)
	var info models.SidecarInfo
	assert.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "fresh", info.Description)
}

func TestCivitaiService_LiveFetchNormalizesAndWritesBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/42", r.URL.Path)
		payload := map[string]interface{}{
			"id":          42,
			"description": "fetched description",
			"modelVersions": []map[string]interface{}{
				{
					"baseModel":    "Pony",
					"trainedWords": []string{"score_9"},
					// both image forms must be accepted
					"images": []interface{}{"https://img/1.png", map[string]string{"url": "https://img/2.png"}},
				},
			},
		}
		json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	cfg, metaStore, service := newCivitaiFixture(t, server.URL)
	writeFile(t, cfg.Storage.LoraPath, "miku.safetensors", []byte("raw"))

	desc, err := service.ModelDescription(context.Background(), 42, "miku.safetensors", false)
	assert.NoError(t, err)
	assert.Equal(t, "civitai", desc.Source)
	assert.Equal(t, "fetched description", desc.Description)
	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, desc.Images)

	// fetched data lands in the sidecar and the metadata overlay
	_, err = os.Stat(filepath.Join(cfg.Storage.LoraPath, "miku.info"))
	assert.NoError(t, err)

	record, found, _ := metaStore.Get("miku.safetensors")
	assert.True(t, found)
	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, record.CivitaiImages)

	// second call is served by the freshly written sidecar
	desc, err = service.ModelDescription(context.Background(), 42, "miku.safetensors", false)
	assert.NoError(t, err)
	assert.Equal(t, "sidecar", desc.Source)
}

func TestCivitaiService_RefreshBypassesSidecar(t *testing.T) {
	registryCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registryCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "description": "fresh"})
	}))
	defer server.Close()

	cfg, _, service := newCivitaiFixture(t, server.URL)
	writeFile(t, cfg.Storage.LoraPath, "miku.safetensors", []byte("raw"))
	sidecar, _ := json.Marshal(map[string]interface{}{"description": "stale"})
	writeFile(t, cfg.Storage.LoraPath, "miku.info", sidecar)

	desc, err := service.ModelDescription(context.Background(), 42, "miku.safetensors", true)
	assert.NoError(t, err)
	assert.Equal(t, "civitai", desc.Source)
	assert.Equal(t, "fresh", desc.Description)
	assert.Equal(t, 1, registryCalls)
}

func TestCivitaiService_UpstreamFailureFallsBackToSidecar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg, _, service := newCivitaiFixture(t, server.URL)
	writeFile(t, cfg.Storage.LoraPath, "miku.safetensors", []byte("raw"))
	sidecar, _ := json.Marshal(map[string]interface{}{"description": "stale but present"})
	writeFile(t, cfg.Storage.LoraPath, "miku.info", sidecar)

	desc, err := service.ModelDescription(context.Background(), 42, "miku.safetensors", true)
	assert.NoError(t, err)
	assert.Equal(t, "sidecar", desc.Source)
	assert.Equal(t, "stale but present", desc.Description)
}

func TestCivitaiService_UpstreamFailureWithoutFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, _, service := newCivitaiFixture(t, server.URL)

	_, err := service.ModelDescription(context.Background(), 42, "", false)
	assert.Error(t, err)
}
