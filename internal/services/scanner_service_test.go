package services

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"Musebox/internal/config"
	"Musebox/internal/models"
	"Musebox/internal/store"
)

func testLogService() LogService {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return LogService{Log: log}
}

func newScannerFixture(t *testing.T) (*config.Configuration, store.MetaStore, ScannerService) {
	t.Helper()
	cfg := &config.Configuration{
		Storage: config.StorageConfig{
			LoraPath: t.TempDir(),
			DataPath: t.TempDir(),
		},
	}
	metaStore := store.NewMetaStore(cfg)
	scanner := NewScannerService(cfg, metaStore, testLogService())
	return cfg, metaStore, scanner
}

func writeFile(t *testing.T, root string, rel string, data []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	assert.NoError(t, os.MkdirAll(filepath.Dir(full), os.ModePerm))
	assert.NoError(t, os.WriteFile(full, data, 0644))
}

func writeSafetensors(t *testing.T, root, rel string, metadata map[string]string) {
	t.Helper()
	header, err := json.Marshal(map[string]interface{}{"__metadata__": metadata})
	assert.NoError(t, err)
	buf := make([]byte, 8+len(header))
	binary.LittleEndian.PutUint64(buf[:8], uint64(len(header)))
	copy(buf[8:], header)
	writeFile(t, root, rel, buf)
}

func findNode(nodes []*models.AssetNode, path string) *models.AssetNode {
	for _, n := range nodes {
		if n.Path == path {
			return n
		}
		if found := findNode(n.Children, path); found != nil {
			return found
		}
	}
	return nil
}

func TestScanner_TreeShapeAndSidecars(t *testing.T) {
	cfg, _, scanner := newScannerFixture(t)
	root := cfg.Storage.LoraPath

	writeSafetensors(t, root, "Anime/miku.safetensors", map[string]string{})
	writeFile(t, root, "Anime/miku.png", []byte("img"))
	writeFile(t, root, "Anime/readme.txt", []byte("not a model"))
	writeFile(t, root, "pony.safetensors", []byte("raw"))
	sidecar, _ := json.Marshal(map[string]interface{}{
		"modelId":      int64(4201),
		"baseModel":    "Pony",
		"trainedWords": []string{"score_9"},
		"images":       []interface{}{"https://img/1.png", map[string]string{"url": "https://img/2.png"}},
	})
	writeFile(t, root, "pony.info", sidecar)
	assert.NoError(t, os.MkdirAll(filepath.Join(root, "Empty"), os.ModePerm))

	nodes, _, err := scanner.Scan()
	assert.NoError(t, err)

	// directories always appear, even without model files
	empty := findNode(nodes, "Empty")
	assert.NotNil(t, empty)
	assert.Equal(t, models.NodeDirectory, empty.Kind)

	// non-model files never become nodes
	assert.Nil(t, findNode(nodes, "Anime/readme.txt"))

	miku := findNode(nodes, "Anime/miku.safetensors")
	assert.NotNil(t, miku)
	assert.Equal(t, models.NodeFile, miku.Kind)
	assert.Equal(t, "Anime/miku.png", miku.PreviewPath)

	pony := findNode(nodes, "pony.safetensors")
	assert.NotNil(t, pony)
	assert.Equal(t, int64(4201), pony.ModelID)
	assert.Equal(t, []string{"score_9"}, pony.TrainedWords)
	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, pony.CivitaiImages)
	assert.Equal(t, "Pony", pony.Generation)
}

func TestScanner_GenerationPriority(t *testing.T) {
	cfg, metaStore, scanner := newScannerFixture(t)
	root := cfg.Storage.LoraPath

	// filename hint
	writeFile(t, root, "flux_dev.ckpt", []byte("raw"))
	// "illustrious" must win over the generic "xl" check
	writeFile(t, root, "illustrious_girl.ckpt", []byte("raw"))
	// header hint only
	writeSafetensors(t, root, "mystery.safetensors", map[string]string{
		"ss_base_model_version": "sdxl_base_v1.0",
	})
	// no hints anywhere
	writeFile(t, root, "plain.ckpt", []byte("raw"))
	// metadata cache beats everything
	writeFile(t, root, "cached_flux.ckpt", []byte("raw"))
	generation := "Pony"
	assert.NoError(t, metaStore.Merge("cached_flux.ckpt", models.MetaPatch{Generation: &generation}))

	nodes, _, err := scanner.Scan()
	assert.NoError(t, err)

	assert.Equal(t, "Flux", findNode(nodes, "flux_dev.ckpt").Generation)
	assert.Equal(t, "Illustrious", findNode(nodes, "illustrious_girl.ckpt").Generation)
	assert.Equal(t, "SDXL", findNode(nodes, "mystery.safetensors").Generation)
	assert.Equal(t, "Unknown", findNode(nodes, "plain.ckpt").Generation)
	assert.Equal(t, "Pony", findNode(nodes, "cached_flux.ckpt").Generation)
}

func TestScanner_SafetensorsHeaderCeiling(t *testing.T) {
	cfg, _, scanner := newScannerFixture(t)
	root := cfg.Storage.LoraPath

	// declared header far beyond the ceiling must be ignored, not read
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[:8], 1<<40)
	writeFile(t, root, "corrupt.safetensors", buf)

	nodes, _, err := scanner.Scan()
	assert.NoError(t, err)
	assert.Equal(t, "Unknown", findNode(nodes, "corrupt.safetensors").Generation)
}

func TestScanner_BrokenSidecarDoesNotAbortScan(t *testing.T) {
	cfg, _, scanner := newScannerFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "a.ckpt", []byte("raw"))
	writeFile(t, root, "a.info", []byte("{not json"))
	writeFile(t, root, "b.ckpt", []byte("raw"))

	nodes, _, err := scanner.Scan()
	assert.NoError(t, err)
	assert.NotNil(t, findNode(nodes, "a.ckpt"))
	assert.NotNil(t, findNode(nodes, "b.ckpt"))
	assert.Equal(t, int64(0), findNode(nodes, "a.ckpt").ModelID)
}

func TestScanner_DirectoryNodesOmitMTime(t *testing.T) {
	cfg, _, scanner := newScannerFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "Anime/miku.safetensors", []byte("raw"))

	nodes, _, err := scanner.Scan()
	assert.NoError(t, err)

	dir := findNode(nodes, "Anime")
	assert.Nil(t, dir.MTime)
	payload, err := json.Marshal(dir)
	assert.NoError(t, err)
	assert.NotContains(t, string(payload), "mtime")

	file := findNode(nodes, "Anime/miku.safetensors")
	assert.NotNil(t, file.MTime)
	payload, err = json.Marshal(file)
	assert.NoError(t, err)
	assert.Contains(t, string(payload), "mtime")
}

func TestScanner_Idempotent(t *testing.T) {
	cfg, _, scanner := newScannerFixture(t)
	root := cfg.Storage.LoraPath

	writeSafetensors(t, root, "Anime/miku.safetensors", map[string]string{})
	writeFile(t, root, "pony_thing.ckpt", []byte("raw"))

	first, _, err := scanner.Scan()
	assert.NoError(t, err)
	second, _, err := scanner.Scan()
	assert.NoError(t, err)

	var flatten func(nodes []*models.AssetNode) []string
	flatten = func(nodes []*models.AssetNode) []string {
		var out []string
		for _, n := range nodes {
			out = append(out, n.Path)
			out = append(out, flatten(n.Children)...)
		}
		return out
	}
	assert.Equal(t, flatten(first), flatten(second))

	a := findNode(first, "Anime/miku.safetensors")
	b := findNode(second, "Anime/miku.safetensors")
	assert.Equal(t, a.Size, b.Size)
	assert.Equal(t, a.Generation, b.Generation)
}
