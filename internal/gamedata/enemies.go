package gamedata

import "github.com/samdwyer/gridtactics/internal/dice"

// EnemyDef defines a hostile archetype loaded from JSON.
type EnemyDef struct {
	ID          string    `json:"id"`          // Unique identifier (e.g., "goblin")
	Name        string    `json:"name"`        // Display name (e.g., "Goblin")
	Glyph       string    `json:"glyph"`       // Single character for rendering (e.g., "g")
	Color       string    `json:"color"`       // Hex color code (e.g., "#00FF00")
	HP          int       `json:"hp"`          // Base hit points
	AC          int       `json:"ac"`          // Base armor class
	AttackBonus int       `json:"attackBonus"` // Added to every d20 attack roll
	Speed       int       `json:"speed"`       // Tiles per move action
	Dice        dice.Spec `json:"dice"`        // Fixed damage dice of the archetype
	SpawnWeight int       `json:"spawnWeight"` // Relative spawn frequency (higher = more common)
}

// GlyphRune returns the glyph as a rune for rendering.
func (e *EnemyDef) GlyphRune() rune {
	if len(e.Glyph) == 0 {
		return '?'
	}
	return rune(e.Glyph[0])
}

// EnemiesFile represents the structure of enemies.json.
type EnemiesFile struct {
	Enemies []EnemyDef `json:"enemies"`
}

// LoadEnemies loads enemy definitions from the embedded enemies.json file.
func LoadEnemies() ([]EnemyDef, error) {
	file, err := Load[EnemiesFile]("enemies.json")
	if err != nil {
		return nil, err
	}
	return file.Enemies, nil
}
