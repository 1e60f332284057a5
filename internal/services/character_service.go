package services

import (
	"fmt"

	"github.com/google/uuid"

	"Musebox/internal/models"
	"Musebox/internal/store"
)

// CharacterService owns the character collection and the favorite lists
// shared between characters and LoRA metadata.
type CharacterService interface {
	GetCharacters() ([]models.Character, error)
	GetCharacterByID(id string) (*models.Character, error)
	CreateCharacter(character models.Character) (*models.Character, error)
	UpdateCharacter(id string, character models.Character) (*models.Character, error)
	DeleteCharacter(id string) error
	ReorderCharacters(ids []string) error
	CombinedPrompt(characterID, variationID string) (string, error)

	GetLists() ([]string, error)
	CreateList(name string) error
	RenameList(oldName, newName string) error
	DeleteList(name string) error
}

type characterServiceImpl struct {
	characterStore store.CharacterStore
	metaStore      store.MetaStore
}

func NewCharacterService(characterStore store.CharacterStore, metaStore store.MetaStore) CharacterService {
	return &characterServiceImpl{
		characterStore: characterStore,
		metaStore:      metaStore,
	}
}

func (s *characterServiceImpl) GetCharacters() ([]models.Character, error) {
	return s.characterStore.Characters()
}

func (s *characterServiceImpl) GetCharacterByID(id string) (*models.Character, error) {
	characters, err := s.characterStore.Characters()
	if err != nil {
		return nil, err
	}
	for i := range characters {
		if characters[i].ID == id {
			return &characters[i], nil
		}
	}
	return nil, fmt.Errorf("%w: character %s", ErrNotFound, id)
}

func (s *characterServiceImpl) CreateCharacter(character models.Character) (*models.Character, error) {
	characters, err := s.characterStore.Characters()
	if err != nil {
		return nil, err
	}
	character.ID = uuid.NewString()
	for i := range character.Variations {
		if character.Variations[i].ID == "" {
			character.Variations[i].ID = uuid.NewString()
		}
	}
	characters = append(characters, character)
	if err := s.characterStore.SaveCharacters(characters); err != nil {
		return nil, err
	}
	return &character, nil
}

func (s *characterServiceImpl) UpdateCharacter(id string, character models.Character) (*models.Character, error) {
	characters, err := s.characterStore.Characters()
	if err != nil {
		return nil, err
	}
	for i := range characters {
		if characters[i].ID != id {
			continue
		}
		character.ID = id
		for j := range character.Variations {
			if character.Variations[j].ID == "" {
				character.Variations[j].ID = uuid.NewString()
			}
		}
		characters[i] = character
		if err := s.characterStore.SaveCharacters(characters); err != nil {
			return nil, err
		}
		return &characters[i], nil
	}
	return nil, fmt.Errorf("%w: character %s", ErrNotFound, id)
}

func (s *characterServiceImpl) DeleteCharacter(id string) error {
	characters, err := s.characterStore.Characters()
	if err != nil {
		return err
	}
	for i := range characters {
		if characters[i].ID == id {
			characters = append(characters[:i], characters[i+1:]...)
			return s.characterStore.SaveCharacters(characters)
		}
	}
	return fmt.Errorf("%w: character %s", ErrNotFound, id)
}

// ReorderCharacters persists a full new ordering. Characters missing from
// ids keep their relative order after the listed ones.
func (s *characterServiceImpl) ReorderCharacters(ids []string) error {
	characters, err := s.characterStore.Characters()
	if err != nil {
		return err
	}
	byID := make(map[string]int, len(characters))
	for i := range characters {
		byID[characters[i].ID] = i
	}
	reordered := make([]models.Character, 0, len(characters))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if idx, ok := byID[id]; ok && !seen[id] {
			reordered = append(reordered, characters[idx])
			seen[id] = true
		}
	}
	for i := range characters {
		if !seen[characters[i].ID] {
			reordered = append(reordered, characters[i])
		}
	}
	return s.characterStore.SaveCharacters(reordered)
}

func (s *characterServiceImpl) CombinedPrompt(characterID, variationID string) (string, error) {
	character, err := s.GetCharacterByID(characterID)
	if err != nil {
		return "", err
	}
	prompt, ok := character.CombinedPrompt(variationID)
	if !ok {
		return "", fmt.Errorf("%w: variation %s", ErrNotFound, variationID)
	}
	return prompt, nil
}

func (s *characterServiceImpl) GetLists() ([]string, error) {
	return s.characterStore.Lists()
}

func (s *characterServiceImpl) CreateList(name string) error {
	lists, err := s.characterStore.Lists()
	if err != nil {
		return err
	}
	for _, l := range lists {
		if l == name {
			return fmt.Errorf("%w: list %s", ErrConflict, name)
		}
	}
	return s.characterStore.SaveLists(append(lists, name))
}

// RenameList renames a favorite list and cascades the change into every
// character and every MetaRecord referencing it by name.
func (s *characterServiceImpl) RenameList(oldName, newName string) error {
	lists, err := s.characterStore.Lists()
	if err != nil {
		return err
	}
	found := false
	for i, l := range lists {
		if l == oldName {
			lists[i] = newName
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: list %s", ErrNotFound, oldName)
	}
	if err := s.characterStore.SaveLists(lists); err != nil {
		return err
	}
	if err := s.cascadeCharacters(oldName, &newName); err != nil {
		return err
	}
	return s.cascadeMeta(oldName, &newName)
}

// DeleteList removes the list and strips its name everywhere.
func (s *characterServiceImpl) DeleteList(name string) error {
	lists, err := s.characterStore.Lists()
	if err != nil {
		return err
	}
	kept := lists[:0]
	found := false
	for _, l := range lists {
		if l == name {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return fmt.Errorf("%w: list %s", ErrNotFound, name)
	}
	if err := s.characterStore.SaveLists(kept); err != nil {
		return err
	}
	if err := s.cascadeCharacters(name, nil); err != nil {
		return err
	}
	return s.cascadeMeta(name, nil)
}

func replaceListName(names []string, oldName string, newName *string) ([]string, bool) {
	changed := false
	result := make([]string, 0, len(names))
	for _, n := range names {
		if n != oldName {
			result = append(result, n)
			continue
		}
		changed = true
		if newName != nil {
			result = append(result, *newName)
		}
	}
	return result, changed
}

func (s *characterServiceImpl) cascadeCharacters(oldName string, newName *string) error {
	characters, err := s.characterStore.Characters()
	if err != nil {
		return err
	}
	dirty := false
	for i := range characters {
		if updated, changed := replaceListName(characters[i].FavoriteLists, oldName, newName); changed {
			characters[i].FavoriteLists = updated
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	return s.characterStore.SaveCharacters(characters)
}

func (s *characterServiceImpl) cascadeMeta(oldName string, newName *string) error {
	records, err := s.metaStore.All()
	if err != nil {
		return err
	}
	var patches []store.PathPatch
	for path, record := range records {
		if updated, changed := replaceListName(record.FavoriteLists, oldName, newName); changed {
			lists := updated
			patches = append(patches, store.PathPatch{
				Path:  path,
				Patch: models.MetaPatch{FavoriteLists: &lists},
			})
		}
	}
	if len(patches) == 0 {
		return nil
	}
	return s.metaStore.MergeBatch(patches)
}
