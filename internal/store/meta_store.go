package store

import (
	"path/filepath"
	"strings"

	"Musebox/internal/config"
	"Musebox/internal/helpers"
	"Musebox/internal/models"
)

// MetaStore is the metadata overlay for the asset tree, persisted as a
// single keyed JSON document.
type MetaStore interface {
	All() (map[string]models.MetaRecord, error)
	Get(path string) (models.MetaRecord, bool, error)
	Merge(path string, patch models.MetaPatch) error
	MergeBatch(patches []PathPatch) error
	RenamePrefix(oldPath, newPath string) error
	DeletePath(path string) error
	DeletePaths(paths []string) error
	DeletePrefix(prefix string) error
}

type PathPatch struct {
	Path  string           `json:"path"`
	Patch models.MetaPatch `json:"patch"`
}

type jsonMetaStore struct {
	file string
}

func NewMetaStore(configuration *config.Configuration) MetaStore {
	return &jsonMetaStore{file: filepath.Join(configuration.Storage.DataPath, "lora-meta.json")}
}

func (s *jsonMetaStore) load() (map[string]models.MetaRecord, error) {
	records := map[string]models.MetaRecord{}
	if err := ReadDocument(s.file, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *jsonMetaStore) All() (map[string]models.MetaRecord, error) {
	return s.load()
}

// resolveKey finds the stored key matching path, tolerating separator and
// case variance. Falls back to the canonical form for new records.
func resolveKey(records map[string]models.MetaRecord, path string) (string, bool) {
	key := helpers.NormalizePath(path)
	if _, ok := records[key]; ok {
		return key, true
	}
	folded := helpers.FoldPath(path)
	for k := range records {
		if helpers.FoldPath(k) == folded {
			return k, true
		}
	}
	return key, false
}

func (s *jsonMetaStore) Get(path string) (models.MetaRecord, bool, error) {
	records, err := s.load()
	if err != nil {
		return models.MetaRecord{}, false, err
	}
	key, ok := resolveKey(records, path)
	if !ok {
		return models.MetaRecord{}, false, nil
	}
	return records[key], true, nil
}

func (s *jsonMetaStore) Merge(path string, patch models.MetaPatch) error {
	return s.MergeBatch([]PathPatch{{Path: path, Patch: patch}})
}

func (s *jsonMetaStore) MergeBatch(patches []PathPatch) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	for _, p := range patches {
		key, _ := resolveKey(records, p.Path)
		record := records[key]
		p.Patch.Apply(&record)
		records[key] = record
	}
	return WriteDocument(s.file, records)
}

// RenamePrefix rewrites the key at oldPath and every descendant key
// (old prefix followed by a separator) to sit under newPath.
func (s *jsonMetaStore) RenamePrefix(oldPath, newPath string) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	oldKey := helpers.NormalizePath(oldPath)
	newKey := helpers.NormalizePath(newPath)
	oldFold := strings.ToLower(oldKey)

	updated := map[string]models.MetaRecord{}
	for k, v := range records {
		fold := helpers.FoldPath(k)
		switch {
		case fold == oldFold:
			updated[newKey] = v
		case strings.HasPrefix(fold, oldFold+"/"):
			updated[newKey+helpers.NormalizePath(k)[len(oldKey):]] = v
		default:
			updated[k] = v
		}
	}
	return WriteDocument(s.file, updated)
}

func (s *jsonMetaStore) DeletePath(path string) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	key, ok := resolveKey(records, path)
	if !ok {
		return nil
	}
	delete(records, key)
	return WriteDocument(s.file, records)
}

func (s *jsonMetaStore) DeletePaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	records, err := s.load()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if key, ok := resolveKey(records, p); ok {
			delete(records, key)
		}
	}
	return WriteDocument(s.file, records)
}

func (s *jsonMetaStore) DeletePrefix(prefix string) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	fold := helpers.FoldPath(prefix)
	for k := range records {
		kf := helpers.FoldPath(k)
		if kf == fold || strings.HasPrefix(kf, fold+"/") {
			delete(records, k)
		}
	}
	return WriteDocument(s.file, records)
}
