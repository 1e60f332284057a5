package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"Musebox/internal/config"
	"Musebox/internal/models"
	"Musebox/internal/store"
)

func newTreeFixture(t *testing.T) (*config.Configuration, store.MetaStore, TreeService) {
	t.Helper()
	cfg := &config.Configuration{
		Storage: config.StorageConfig{
			LoraPath: t.TempDir(),
			DataPath: t.TempDir(),
		},
	}
	metaStore := store.NewMetaStore(cfg)
	tree := NewTreeService(cfg, metaStore, testLogService())
	return cfg, metaStore, tree
}

func alias(s string) *string { return &s }

func exists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

func TestTreeService_CreateFolder(t *testing.T) {
	cfg, _, tree := newTreeFixture(t)

	assert.NoError(t, tree.CreateFolder("", "Anime"))
	assert.True(t, exists(t, cfg.Storage.LoraPath, "Anime"))

	// already existing target is a no-op
	assert.NoError(t, tree.CreateFolder("", "Anime"))

	// intermediate directories are created
	assert.NoError(t, tree.CreateFolder("Anime/Sub/Deep", "Leaf"))
	assert.True(t, exists(t, cfg.Storage.LoraPath, "Anime/Sub/Deep/Leaf"))
}

func TestTreeService_PathTraversalRejected(t *testing.T) {
	_, _, tree := newTreeFixture(t)

	err := tree.CreateFolder("..", "escape")
	assert.ErrorIs(t, err, ErrForbidden)

	err = tree.Delete("../../etc/passwd")
	assert.ErrorIs(t, err, ErrForbidden)

	err = tree.Rename("../outside", "x")
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = tree.MoveBatch([]string{"a"}, "../../outside")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTreeService_RenamePropagatesMeta(t *testing.T) {
	cfg, metaStore, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "a/b/x.safetensors", []byte("raw"))
	writeFile(t, root, "a/b/c/y.safetensors", []byte("raw"))
	assert.NoError(t, metaStore.Merge("a/b/x.safetensors", models.MetaPatch{Alias: alias("x")}))
	assert.NoError(t, metaStore.Merge("a/b/c/y.safetensors", models.MetaPatch{Alias: alias("y")}))

	assert.NoError(t, tree.Rename("a/b", "z"))

	assert.True(t, exists(t, root, "a/z/x.safetensors"))
	assert.False(t, exists(t, root, "a/b"))

	_, found, _ := metaStore.Get("a/z/x.safetensors")
	assert.True(t, found)
	_, found, _ = metaStore.Get("a/z/c/y.safetensors")
	assert.True(t, found)
	_, found, _ = metaStore.Get("a/b/x.safetensors")
	assert.False(t, found)
}

func TestTreeService_RenameConflict(t *testing.T) {
	cfg, _, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "one.ckpt", []byte("raw"))
	writeFile(t, root, "two.ckpt", []byte("raw"))

	err := tree.Rename("one.ckpt", "two.ckpt")
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, exists(t, root, "one.ckpt"))
}

func TestTreeService_RenameCarriesSidecars(t *testing.T) {
	cfg, metaStore, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "miku.safetensors", []byte("raw"))
	writeFile(t, root, "miku.png", []byte("img"))
	writeFile(t, root, "miku.civitai.info", []byte("{}"))
	writeFile(t, root, "mikuru.safetensors", []byte("raw"))
	writeFile(t, root, "mikuru.png", []byte("img"))
	assert.NoError(t, metaStore.Merge("miku.safetensors", models.MetaPatch{Alias: alias("m")}))

	assert.NoError(t, tree.Rename("miku.safetensors", "rin.safetensors"))

	assert.True(t, exists(t, root, "rin.safetensors"))
	assert.True(t, exists(t, root, "rin.png"))
	assert.True(t, exists(t, root, "rin.civitai.info"))
	assert.False(t, exists(t, root, "miku.safetensors"))
	assert.False(t, exists(t, root, "miku.png"))
	assert.False(t, exists(t, root, "miku.civitai.info"))
	// prefix-similar neighbour keeps its own siblings
	assert.True(t, exists(t, root, "mikuru.safetensors"))
	assert.True(t, exists(t, root, "mikuru.png"))

	record, found, _ := metaStore.Get("rin.safetensors")
	assert.True(t, found)
	assert.Equal(t, "m", record.Alias)
}

func TestTreeService_DeleteFileRemovesSidecars(t *testing.T) {
	cfg, metaStore, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "miku.safetensors", []byte("raw"))
	writeFile(t, root, "miku.png", []byte("img"))
	writeFile(t, root, "miku.civitai.info", []byte("{}"))
	writeFile(t, root, "mikuru.safetensors", []byte("raw"))
	assert.NoError(t, metaStore.Merge("miku.safetensors", models.MetaPatch{Alias: alias("m")}))

	assert.NoError(t, tree.Delete("miku.safetensors"))

	assert.False(t, exists(t, root, "miku.safetensors"))
	assert.False(t, exists(t, root, "miku.png"))
	assert.False(t, exists(t, root, "miku.civitai.info"))
	// prefix-similar name must survive
	assert.True(t, exists(t, root, "mikuru.safetensors"))

	_, found, _ := metaStore.Get("miku.safetensors")
	assert.False(t, found)
}

func TestTreeService_DeleteDirectoryLeavesDescendantMetaForJanitor(t *testing.T) {
	cfg, metaStore, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "dir/x.safetensors", []byte("raw"))
	assert.NoError(t, metaStore.Merge("dir/x.safetensors", models.MetaPatch{Alias: alias("x")}))

	assert.NoError(t, tree.Delete("dir"))
	assert.False(t, exists(t, root, "dir"))

	// descendant record is swept later by the janitor, not here
	_, found, _ := metaStore.Get("dir/x.safetensors")
	assert.True(t, found)
}

func TestTreeService_MoveBatchPartialFailure(t *testing.T) {
	cfg, _, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "a.ckpt", []byte("raw"))
	writeFile(t, root, "b.ckpt", []byte("raw"))
	writeFile(t, root, "dest/b.ckpt", []byte("existing"))

	moved, failures, err := tree.MoveBatch([]string{"a.ckpt", "b.ckpt", "ghost.ckpt"}, "dest")
	assert.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Equal(t, []string{"b.ckpt", "ghost.ckpt"}, failures)
	assert.True(t, exists(t, root, "dest/a.ckpt"))
	assert.True(t, exists(t, root, "b.ckpt"))
}

func TestTreeService_MoveCarriesSidecars(t *testing.T) {
	cfg, metaStore, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	writeFile(t, root, "miku.safetensors", []byte("raw"))
	writeFile(t, root, "miku.png", []byte("img"))
	assert.NoError(t, os.MkdirAll(filepath.Join(root, "Anime"), os.ModePerm))
	assert.NoError(t, metaStore.Merge("miku.safetensors", models.MetaPatch{Alias: alias("m")}))

	assert.NoError(t, tree.Move("miku.safetensors", "Anime"))

	assert.True(t, exists(t, root, "Anime/miku.safetensors"))
	assert.True(t, exists(t, root, "Anime/miku.png"))
	record, found, _ := metaStore.Get("Anime/miku.safetensors")
	assert.True(t, found)
	assert.Equal(t, "m", record.Alias)
}

func TestTreeService_EndToEndScenario(t *testing.T) {
	cfg, metaStore, tree := newTreeFixture(t)
	root := cfg.Storage.LoraPath

	// create folder "Anime" under root
	assert.NoError(t, tree.CreateFolder("", "Anime"))

	// create a LoRA at root and move it into the folder
	writeFile(t, root, "miku.safetensors", []byte("raw"))
	assert.NoError(t, metaStore.Merge("miku.safetensors", models.MetaPatch{
		TriggerWords:  alias("hatsune miku"),
		CivitaiImages: &[]string{"https://img/1.png"},
	}))
	assert.NoError(t, tree.Move("miku.safetensors", "Anime"))

	// rename "Anime" to "Anime2"
	assert.NoError(t, tree.Rename("Anime", "Anime2"))

	assert.True(t, exists(t, root, "Anime2/miku.safetensors"))
	record, found, _ := metaStore.Get("Anime2/miku.safetensors")
	assert.True(t, found)
	assert.Equal(t, "hatsune miku", record.TriggerWords)
	assert.Equal(t, []string{"https://img/1.png"}, record.CivitaiImages)

	_, found, _ = metaStore.Get("Anime/miku.safetensors")
	assert.False(t, found)
	_, found, _ = metaStore.Get("miku.safetensors")
	assert.False(t, found)
}
