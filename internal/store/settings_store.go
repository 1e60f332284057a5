package store

import (
	"path/filepath"

	"Musebox/internal/config"
)

// SettingsStore holds the flat runtime-editable settings document.
type SettingsStore interface {
	Get() (map[string]interface{}, error)
	Put(settings map[string]interface{}) error
}

type jsonSettingsStore struct {
	file string
}

func NewSettingsStore(configuration *config.Configuration) SettingsStore {
	return &jsonSettingsStore{file: filepath.Join(configuration.Storage.DataPath, "settings.json")}
}

func (s *jsonSettingsStore) Get() (map[string]interface{}, error) {
	settings := map[string]interface{}{}
	if err := ReadDocument(s.file, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *jsonSettingsStore) Put(settings map[string]interface{}) error {
	return WriteDocument(s.file, settings)
}
