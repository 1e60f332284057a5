package store

import (
	"path/filepath"

	"Musebox/internal/config"
	"Musebox/internal/models"
)

// CharacterStore persists the ordered character collection and the shared
// favorite-list names, one JSON document each.
type CharacterStore interface {
	Characters() ([]models.Character, error)
	SaveCharacters(characters []models.Character) error
	Lists() ([]string, error)
	SaveLists(lists []string) error
}

type jsonCharacterStore struct {
	charactersFile string
	listsFile      string
}

func NewCharacterStore(configuration *config.Configuration) CharacterStore {
	return &jsonCharacterStore{
		charactersFile: filepath.Join(configuration.Storage.DataPath, "characters.json"),
		listsFile:      filepath.Join(configuration.Storage.DataPath, "lists.json"),
	}
}

func (s *jsonCharacterStore) Characters() ([]models.Character, error) {
	var characters []models.Character
	if err := ReadDocument(s.charactersFile, &characters); err != nil {
		return nil, err
	}
	return characters, nil
}

func (s *jsonCharacterStore) SaveCharacters(characters []models.Character) error {
	return WriteDocument(s.charactersFile, characters)
}

func (s *jsonCharacterStore) Lists() ([]string, error) {
	var lists []string
	if err := ReadDocument(s.listsFile, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *jsonCharacterStore) SaveLists(lists []string) error {
	return WriteDocument(s.listsFile, lists)
}
