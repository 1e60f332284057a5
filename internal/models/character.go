package models

import "strings"

// Variation is one prompt variant of a character.
type Variation struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Image   string   `json:"image,omitempty"`
	Prompts []string `json:"prompts"`
}

// Character holds a base prompt fragment list shared by all of its
// variations.
type Character struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Series        string      `json:"series,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Image         string      `json:"image,omitempty"`
	BasePrompts   []string    `json:"basePrompts"`
	Variations    []Variation `json:"variations"`
	FavoriteLists []string    `json:"favoriteLists,omitempty"`
}

const promptDelimiter = ", "

// CombinedPrompt joins the base fragments with one variation's fragments,
// order preserved.
func (c *Character) CombinedPrompt(variationID string) (string, bool) {
	for i := range c.Variations {
		if c.Variations[i].ID == variationID {
			parts := append(append([]string{}, c.BasePrompts...), c.Variations[i].Prompts...)
			return strings.Join(parts, promptDelimiter), true
		}
	}
	return "", false
}
