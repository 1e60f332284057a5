package services

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"Musebox/internal/config"
	"Musebox/internal/helpers"
	"Musebox/internal/models"
	"Musebox/internal/store"
)

type ScannerService interface {
	Scan() ([]*models.AssetNode, map[string]models.MetaRecord, error)
	FlatFiles() ([]*models.AssetNode, error)
	RootDir() string
}

type scannerServiceImpl struct {
	configuration *config.Configuration
	metaStore     store.MetaStore
	logService    LogService
}

func NewScannerService(configuration *config.Configuration, metaStore store.MetaStore, logService LogService) ScannerService {
	return &scannerServiceImpl{
		configuration: configuration,
		metaStore:     metaStore,
		logService:    logService,
	}
}

var modelExtensions = map[string]bool{
	".safetensors": true,
	".ckpt":        true,
	".pt":          true,
	".bin":         true,
}

var previewExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif", ".mp4", ".webm"}

// sidecarSuffixes in precedence order; the first existing one wins.
var sidecarSuffixes = []string{".info", ".civitai.info"}

// generationRules map base-model hints to generation labels. Order matters:
// the generic "xl" substring sits last so that more specific families are
// matched first.
var generationRules = []struct {
	substr string
	label  string
}{
	{"pony", "Pony"},
	{"illustrious", "Illustrious"},
	{"noob", "NoobAI"},
	{"flux", "Flux"},
	{"sd 3", "SD3"},
	{"sd3", "SD3"},
	{"sd 1.5", "SD1.5"},
	{"sd1.5", "SD1.5"},
	{"sd15", "SD1.5"},
	{"xl", "SDXL"},
}

const generationUnknown = "Unknown"

func matchGeneration(hint string) string {
	lowered := strings.ToLower(hint)
	for _, rule := range generationRules {
		if strings.Contains(lowered, rule.substr) {
			return rule.label
		}
	}
	return ""
}

func (s *scannerServiceImpl) RootDir() string {
	return s.configuration.Storage.LoraPath
}

// Scan walks the configured root and returns the asset tree together with
// the full metadata overlay. The walk is synchronous and rebuilt on every
// call; per-item failures are logged and skipped.
func (s *scannerServiceImpl) Scan() ([]*models.AssetNode, map[string]models.MetaRecord, error) {
	meta, err := s.metaStore.All()
	if err != nil {
		return nil, nil, err
	}
	nodes := s.scanDirectory(s.RootDir(), "", meta)
	return nodes, meta, nil
}

func (s *scannerServiceImpl) FlatFiles() ([]*models.AssetNode, error) {
	nodes, _, err := s.Scan()
	if err != nil {
		return nil, err
	}
	var files []*models.AssetNode
	var collect func(nodes []*models.AssetNode)
	collect = func(nodes []*models.AssetNode) {
		for _, n := range nodes {
			if n.Kind == models.NodeFile {
				files = append(files, n)
			} else {
				collect(n.Children)
			}
		}
	}
	collect(nodes)
	return files, nil
}

func (s *scannerServiceImpl) scanDirectory(absDir, relDir string, meta map[string]models.MetaRecord) []*models.AssetNode {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		s.logService.Log.WithFields(logrus.Fields{
			"dir":   absDir,
			"error": err.Error(),
		}).Warn("skipping unreadable directory")
		return nil
	}

	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = true
	}

	var nodes []*models.AssetNode
	for _, entry := range entries {
		name := entry.Name()
		relPath := path.Join(relDir, name)
		if entry.IsDir() {
			node := &models.AssetNode{
				Kind: models.NodeDirectory,
				Name: name,
				Path: relPath,
			}
			node.Children = s.scanDirectory(filepath.Join(absDir, name), relPath, meta)
			nodes = append(nodes, node)
			continue
		}
		if !modelExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logService.Log.WithFields(logrus.Fields{
				"file":  relPath,
				"error": err.Error(),
			}).Warn("skipping unreadable file")
			continue
		}
		mtime := info.ModTime()
		node := &models.AssetNode{
			Kind:  models.NodeFile,
			Name:  name,
			Path:  relPath,
			Size:  info.Size(),
			MTime: &mtime,
		}
		s.enrichFileNode(node, absDir, relDir, names, meta)
		nodes = append(nodes, node)
	}
	return nodes
}

// enrichFileNode fills preview, sidecar and generation attributes from the
// directory listing already in hand; no extra directory reads happen here.
func (s *scannerServiceImpl) enrichFileNode(node *models.AssetNode, absDir, relDir string, names map[string]bool, meta map[string]models.MetaRecord) {
	base := helpers.BaseName(node.Name)

	for _, ext := range previewExtensions {
		for _, candidate := range []string{base + ext, base + ".preview" + ext} {
			if names[candidate] {
				node.PreviewPath = path.Join(relDir, candidate)
				break
			}
		}
		if node.PreviewPath != "" {
			break
		}
	}

	var sidecar *models.SidecarInfo
	for _, suffix := range sidecarSuffixes {
		candidate := base + suffix
		if !names[candidate] {
			continue
		}
		parsed, err := readSidecar(filepath.Join(absDir, candidate))
		if err != nil {
			s.logService.Log.WithFields(logrus.Fields{
				"file":  node.Path,
				"error": err.Error(),
			}).Warn("unparseable info sidecar")
			continue
		}
		sidecar = parsed
		break
	}
	if sidecar != nil {
		node.ModelID = sidecar.ModelID
		node.TrainedWords = sidecar.TrainedWords
		node.CivitaiImages = sidecar.ImageURLs()
		node.CivitaiURL = sidecar.ModelURL
	}

	node.Generation = s.detectGeneration(node, sidecar, filepath.Join(absDir, node.Name), meta)
}

func readSidecar(path string) (*models.SidecarInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info models.SidecarInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// detectGeneration tries, in order: the cached value in the metadata
// overlay, the sidecar's base-model string, the filename, and finally the
// safetensors header.
func (s *scannerServiceImpl) detectGeneration(node *models.AssetNode, sidecar *models.SidecarInfo, absPath string, meta map[string]models.MetaRecord) string {
	if record, ok := lookupMeta(meta, node.Path); ok && record.Generation != "" {
		return record.Generation
	}
	if sidecar != nil && sidecar.BaseModel != "" {
		if label := matchGeneration(sidecar.BaseModel); label != "" {
			return label
		}
	}
	if label := matchGeneration(node.Name); label != "" {
		return label
	}
	if strings.EqualFold(filepath.Ext(node.Name), ".safetensors") {
		if label, err := s.generationFromSafetensors(absPath); err != nil {
			s.logService.Log.WithFields(logrus.Fields{
				"file":  node.Path,
				"error": err.Error(),
			}).Debug("unreadable safetensors header")
		} else if label != "" {
			return label
		}
	}
	return generationUnknown
}

func lookupMeta(meta map[string]models.MetaRecord, p string) (models.MetaRecord, bool) {
	if record, ok := meta[helpers.NormalizePath(p)]; ok {
		return record, true
	}
	folded := helpers.FoldPath(p)
	for k, v := range meta {
		if helpers.FoldPath(k) == folded {
			return v, true
		}
	}
	return models.MetaRecord{}, false
}

// maxSafetensorsHeader caps the declared header length so a corrupt file
// cannot make the scanner try to read gigabytes into memory.
const maxSafetensorsHeader = 100 * 1024 * 1024

// generationFromSafetensors reads the fixed-layout safetensors header: a
// little-endian uint64 length followed by a JSON blob whose __metadata__
// object may carry base-model hints.
func (s *scannerServiceImpl) generationFromSafetensors(absPath string) (string, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lenBuf [8]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		return "", err
	}
	headerLen := binary.LittleEndian.Uint64(lenBuf[:])
	if headerLen == 0 || headerLen > maxSafetensorsHeader {
		return "", nil
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return "", err
	}

	var header struct {
		Metadata map[string]string `json:"__metadata__"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return "", err
	}

	keys := make([]string, 0, len(header.Metadata))
	for k := range header.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.Contains(strings.ToLower(k), "model") {
			continue
		}
		if label := matchGeneration(header.Metadata[k]); label != "" {
			return label, nil
		}
	}
	return "", nil
}
