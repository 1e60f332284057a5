package services

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"github.com/sirupsen/logrus"

	"Musebox/internal/config"
	"Musebox/internal/helpers"
	"Musebox/internal/store"
)

// TreeService mutates the asset tree on disk and keeps the metadata
// overlay's keys in step with every rename and move.
type TreeService interface {
	CreateFolder(parentPath, name string) error
	Rename(relPath, newName string) error
	Delete(relPath string) error
	Move(sourcePath, destDir string) error
	MoveBatch(sourcePaths []string, destDir string) (moved int, failures []string, err error)
}

type treeServiceImpl struct {
	configuration *config.Configuration
	metaStore     store.MetaStore
	logService    LogService
}

func NewTreeService(configuration *config.Configuration, metaStore store.MetaStore, logService LogService) TreeService {
	return &treeServiceImpl{
		configuration: configuration,
		metaStore:     metaStore,
		logService:    logService,
	}
}

func (s *treeServiceImpl) resolve(relPath string) (string, error) {
	abs, err := helpers.WithinRoot(s.configuration.Storage.LoraPath, relPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrForbidden, relPath)
	}
	return abs, nil
}

func (s *treeServiceImpl) CreateFolder(parentPath, name string) error {
	target, err := s.resolve(path.Join(helpers.NormalizePath(parentPath), name))
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	return os.MkdirAll(target, os.ModePerm)
}

// Rename moves a node to a new name in place. File renames carry the
// basename-sharing siblings (previews and info sidecars) so they stay
// attached, the same grouping Move and Delete use.
func (s *treeServiceImpl) Rename(relPath, newName string) error {
	src, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	newRel := path.Join(path.Dir(helpers.NormalizePath(relPath)), newName)
	dst, err := s.resolve(newRel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrConflict, newRel)
	}

	var siblings []string
	if !info.IsDir() {
		for _, sibling := range s.basenameSiblings(src) {
			if sibling != src {
				siblings = append(siblings, sibling)
			}
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return err
	}

	oldBase := helpers.BaseName(filepath.Base(src))
	newBase := helpers.BaseName(newName)
	if oldBase != newBase {
		dir := filepath.Dir(src)
		for _, sibling := range siblings {
			name := filepath.Base(sibling)
			target := filepath.Join(dir, newBase+strings.TrimPrefix(name, oldBase))
			if err := os.Rename(sibling, target); err != nil {
				s.logService.Log.WithFields(logrus.Fields{
					"file":  sibling,
					"error": err.Error(),
				}).Warn("failed to rename sidecar")
			}
		}
	}
	return s.metaStore.RenamePrefix(helpers.NormalizePath(relPath), newRel)
}

// Delete removes a node. For files every sibling sharing the basename goes
// with it (previews and info sidecars); directories are removed
// recursively and their descendant metadata is left for the janitor sweep.
func (s *treeServiceImpl) Delete(relPath string) error {
	abs, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	if info.IsDir() {
		if err := helpers.DeleteFile(abs, true); err != nil {
			return err
		}
		return s.metaStore.DeletePath(relPath)
	}
	for _, sibling := range s.basenameSiblings(abs) {
		if err := helpers.DeleteFile(sibling, false); err != nil {
			s.logService.Log.WithFields(logrus.Fields{
				"file":  sibling,
				"error": err.Error(),
			}).Warn("failed to delete sidecar")
		}
	}
	return s.metaStore.DeletePath(relPath)
}

// basenameSiblings lists abs plus every file in the same directory whose
// name before the first extension matches abs's basename.
func (s *treeServiceImpl) basenameSiblings(abs string) []string {
	dir := filepath.Dir(abs)
	base := helpers.BaseName(filepath.Base(abs))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{abs}
	}
	var siblings []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == base || strings.HasPrefix(name, base+".") {
			siblings = append(siblings, filepath.Join(dir, name))
		}
	}
	if len(siblings) == 0 {
		siblings = []string{abs}
	}
	return siblings
}

func (s *treeServiceImpl) Move(sourcePath, destDir string) error {
	moved, failures, err := s.MoveBatch([]string{sourcePath}, destDir)
	if err != nil {
		return err
	}
	if moved == 0 {
		if len(failures) > 0 {
			return fmt.Errorf("%w: %s", ErrConflict, failures[0])
		}
		return fmt.Errorf("%w: %s", ErrNotFound, sourcePath)
	}
	return nil
}

// MoveBatch relocates nodes into destDir. Items that would collide with an
// existing entry are skipped and reported; the batch succeeds when at
// least one item moved. The metadata keys follow via the same
// prefix-rewrite rule as rename.
func (s *treeServiceImpl) MoveBatch(sourcePaths []string, destDir string) (int, []string, error) {
	destAbs, err := s.resolve(destDir)
	if err != nil {
		return 0, nil, err
	}
	if info, err := os.Stat(destAbs); err != nil || !info.IsDir() {
		return 0, nil, fmt.Errorf("%w: destination %s", ErrNotFound, destDir)
	}

	moved := 0
	var failures []string
	for _, sourcePath := range sourcePaths {
		if err := s.moveOne(sourcePath, destDir, destAbs); err != nil {
			s.logService.Log.WithFields(logrus.Fields{
				"source": sourcePath,
				"dest":   destDir,
				"error":  err.Error(),
			}).Warn("move failed")
			failures = append(failures, sourcePath)
			continue
		}
		moved++
	}
	return moved, failures, nil
}

func (s *treeServiceImpl) moveOne(sourcePath, destDir, destAbs string) error {
	srcAbs, err := s.resolve(sourcePath)
	if err != nil {
		return err
	}
	info, err := os.Stat(srcAbs)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, sourcePath)
	}
	name := filepath.Base(srcAbs)
	newRel := path.Join(helpers.NormalizePath(destDir), name)
	if _, err := os.Stat(filepath.Join(destAbs, name)); err == nil {
		return fmt.Errorf("%w: %s", ErrConflict, newRel)
	}

	sources := []string{srcAbs}
	if !info.IsDir() {
		sources = s.basenameSiblings(srcAbs)
	}
	for _, src := range sources {
		if err := moveNode(src, filepath.Join(destAbs, filepath.Base(src))); err != nil {
			return err
		}
	}
	return s.metaStore.RenamePrefix(helpers.NormalizePath(sourcePath), newRel)
}

// moveNode renames when possible and falls back to copy-then-remove when
// the rename crosses filesystems.
func moveNode(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copy.Copy(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}
