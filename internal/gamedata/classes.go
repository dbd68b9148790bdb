package gamedata

import "github.com/samdwyer/gridtactics/internal/dice"

// ClassDef defines a playable class loaded from JSON.
type ClassDef struct {
	ID          string    `json:"id"`          // Unique identifier (e.g., "fighter")
	Name        string    `json:"name"`        // Display name (e.g., "Fighter")
	Symbol      string    `json:"symbol"`      // Single character for rendering (e.g., "F")
	Color       string    `json:"color"`       // Hex color code
	HP          int       `json:"hp"`          // Base hit points
	AC          int       `json:"ac"`          // Base armor class
	AttackBonus int       `json:"attackBonus"` // Added to every d20 attack roll
	Speed       int       `json:"speed"`       // Tiles per move action
	Dice        dice.Spec `json:"dice"`        // Base weapon damage dice
	Potions     int       `json:"potions"`     // Starting healing potions
	Abilities   []string  `json:"abilities"`   // Ability IDs this class can use
}

// SymbolRune returns the symbol as a rune for rendering.
func (c *ClassDef) SymbolRune() rune {
	if len(c.Symbol) == 0 {
		return '?'
	}
	return rune(c.Symbol[0])
}

// ClassesFile represents the structure of classes.json.
type ClassesFile struct {
	Classes []ClassDef `json:"classes"`
}

// LoadClasses loads class definitions from the embedded classes.json file.
func LoadClasses() ([]ClassDef, error) {
	file, err := Load[ClassesFile]("classes.json")
	if err != nil {
		return nil, err
	}
	return file.Classes, nil
}
