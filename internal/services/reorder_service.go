package services

import (
	"math"
	"path"
	"strings"
	"sync"

	"Musebox/internal/helpers"
	"Musebox/internal/models"
	"Musebox/internal/store"
)

// ReorderService re-sequences siblings under manual sort mode. Order is
// defined only among nodes sharing one parent directory; a drop whose
// sources live under a different parent is rejected silently. The result
// is persisted as zero-based order values in one batched metadata write;
// callers obtain the canonical sequence by rescanning.
type ReorderService interface {
	Reorder(sourcePaths []string, targetPath string) error
}

type reorderServiceImpl struct {
	scanner   ScannerService
	metaStore store.MetaStore

	mutex sync.Mutex
	busy  bool
}

func NewReorderService(scanner ScannerService, metaStore store.MetaStore) ReorderService {
	return &reorderServiceImpl{
		scanner:   scanner,
		metaStore: metaStore,
	}
}

// orderSentinel sorts unordered siblings after every explicitly ordered
// one; ties fall back to lexical name order.
const orderSentinel = math.MaxInt32

func (s *reorderServiceImpl) Reorder(sourcePaths []string, targetPath string) error {
	s.mutex.Lock()
	if s.busy {
		s.mutex.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mutex.Unlock()
	defer func() {
		s.mutex.Lock()
		s.busy = false
		s.mutex.Unlock()
	}()

	if len(sourcePaths) == 0 {
		return nil
	}
	parent := path.Dir(helpers.NormalizePath(targetPath))
	for _, src := range sourcePaths {
		if path.Dir(helpers.NormalizePath(src)) != parent {
			return nil
		}
	}

	nodes, meta, err := s.scanner.Scan()
	if err != nil {
		return err
	}
	siblings := findChildren(nodes, parent)
	if len(siblings) == 0 {
		return nil
	}

	baseline := baselineSequence(siblings, meta)
	reordered := spliceSelection(baseline, sourcePaths, targetPath)

	patches := make([]store.PathPatch, 0, len(reordered))
	for i, node := range reordered {
		order := i
		patches = append(patches, store.PathPatch{
			Path:  node.Path,
			Patch: models.MetaPatch{Order: &order},
		})
	}
	return s.metaStore.MergeBatch(patches)
}

func findChildren(nodes []*models.AssetNode, parent string) []*models.AssetNode {
	if parent == "." || parent == "" {
		return nodes
	}
	for _, n := range nodes {
		if n.Kind != models.NodeDirectory {
			continue
		}
		if helpers.SamePath(n.Path, parent) {
			return n.Children
		}
		if strings.HasPrefix(helpers.FoldPath(parent), helpers.FoldPath(n.Path)+"/") {
			if found := findChildren(n.Children, parent); found != nil {
				return found
			}
		}
	}
	return nil
}

// baselineSequence sorts siblings by stored order (sentinel when unset)
// with lexical name order as the tie-break, producing the deterministic
// sequence every move starts from.
func baselineSequence(siblings []*models.AssetNode, meta map[string]models.MetaRecord) []*models.AssetNode {
	ordered := append([]*models.AssetNode{}, siblings...)
	orderOf := func(n *models.AssetNode) int {
		if record, ok := lookupMeta(meta, n.Path); ok && record.Order != nil {
			return *record.Order
		}
		return orderSentinel
	}
	// insertion-sort keeps this obviously stable
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0; j-- {
			a, b := ordered[j-1], ordered[j]
			oa, ob := orderOf(a), orderOf(b)
			if oa < ob || (oa == ob && strings.ToLower(a.Name) <= strings.ToLower(b.Name)) {
				break
			}
			ordered[j-1], ordered[j] = b, a
		}
	}
	return ordered
}

// spliceSelection removes the selected nodes and re-inserts them as a
// contiguous block at the drop position. When the drop target itself was
// selected, the block goes before the first remaining sibling that
// originally followed the target.
func spliceSelection(baseline []*models.AssetNode, sourcePaths []string, targetPath string) []*models.AssetNode {
	selected := make(map[string]bool, len(sourcePaths))
	for _, p := range sourcePaths {
		selected[helpers.FoldPath(p)] = true
	}

	var block []*models.AssetNode
	var remaining []*models.AssetNode
	targetBaselineIdx := -1
	for i, node := range baseline {
		if helpers.SamePath(node.Path, targetPath) {
			targetBaselineIdx = i
		}
		if selected[helpers.FoldPath(node.Path)] {
			block = append(block, node)
		} else {
			remaining = append(remaining, node)
		}
	}
	if len(block) == 0 || targetBaselineIdx == -1 {
		return baseline
	}

	insertAt := len(remaining)
	if !selected[helpers.FoldPath(targetPath)] {
		for i, node := range remaining {
			if helpers.SamePath(node.Path, targetPath) {
				insertAt = i
				break
			}
		}
	} else {
		for i, node := range remaining {
			if baselineIndex(baseline, node) > targetBaselineIdx {
				insertAt = i
				break
			}
		}
	}

	result := make([]*models.AssetNode, 0, len(baseline))
	result = append(result, remaining[:insertAt]...)
	result = append(result, block...)
	result = append(result, remaining[insertAt:]...)
	return result
}

func baselineIndex(baseline []*models.AssetNode, node *models.AssetNode) int {
	for i, n := range baseline {
		if n == node {
			return i
		}
	}
	return -1
}
