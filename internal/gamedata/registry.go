package gamedata

import (
	"fmt"
	"math/rand"
)

// registry indexes table rows by ID, preserving file order.
type registry[T any] struct {
	rows  []T
	index map[string]int
}

func newRegistry[T any](rows []T, id func(*T) string) registry[T] {
	r := registry[T]{rows: rows, index: make(map[string]int, len(rows))}
	for i := range rows {
		r.index[id(&rows[i])] = i
	}
	return r
}

// GetByID returns the row with the given ID, or nil if not found.
func (r *registry[T]) GetByID(id string) *T {
	i, ok := r.index[id]
	if !ok {
		return nil
	}
	return &r.rows[i]
}

// GetMultiple returns the rows for ids in order. Unknown IDs are skipped.
func (r *registry[T]) GetMultiple(ids []string) []*T {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if row := r.GetByID(id); row != nil {
			out = append(out, row)
		}
	}
	return out
}

// All returns every row in file order.
func (r *registry[T]) All() []T { return r.rows }

// Count returns the number of rows.
func (r *registry[T]) Count() int { return len(r.rows) }

// checkIDs rejects empty and duplicate IDs in a table.
func checkIDs[T any](table string, rows []T, id func(*T) string) error {
	if len(rows) == 0 {
		return fmt.Errorf("%s: no rows", table)
	}
	seen := make(map[string]bool, len(rows))
	for i := range rows {
		key := id(&rows[i])
		switch {
		case key == "":
			return fmt.Errorf("%s: row %d has no id", table, i)
		case seen[key]:
			return fmt.Errorf("%s: duplicate id %q", table, key)
		}
		seen[key] = true
	}
	return nil
}

func enemyID(e *EnemyDef) string     { return e.ID }
func abilityID(a *AbilityDef) string { return a.ID }

// EnemyRegistry holds the hostile archetypes and picks random spawns.
type EnemyRegistry struct {
	registry[EnemyDef]
	totalWeight int
}

// NewEnemyRegistry creates a registry from loaded archetypes.
func NewEnemyRegistry(enemies []EnemyDef) *EnemyRegistry {
	r := &EnemyRegistry{registry: newRegistry(enemies, enemyID)}
	for _, e := range enemies {
		r.totalWeight += max(e.SpawnWeight, 0)
	}
	return r
}

// LoadEnemyRegistry builds the registry from the embedded enemies.json.
func LoadEnemyRegistry() (*EnemyRegistry, error) {
	enemies, err := LoadEnemies()
	if err != nil {
		return nil, err
	}
	if err := checkIDs("enemies.json", enemies, enemyID); err != nil {
		return nil, err
	}
	return NewEnemyRegistry(enemies), nil
}

// SpawnRandom picks an archetype with probability proportional to its
// spawn weight. It returns nil when no archetype can spawn.
func (r *EnemyRegistry) SpawnRandom(rng *rand.Rand) *EnemyDef {
	if r.totalWeight <= 0 {
		return nil
	}
	roll := rng.Intn(r.totalWeight)
	for i := range r.rows {
		w := max(r.rows[i].SpawnWeight, 0)
		if roll < w {
			return &r.rows[i]
		}
		roll -= w
	}
	return nil
}

// AbilityRegistry holds every ability definition.
type AbilityRegistry struct {
	registry[AbilityDef]
}

// NewAbilityRegistry creates a registry from loaded ability definitions.
func NewAbilityRegistry(abilities []AbilityDef) *AbilityRegistry {
	return &AbilityRegistry{registry: newRegistry(abilities, abilityID)}
}

// LoadAbilityRegistry builds the registry from the embedded abilities.json.
func LoadAbilityRegistry() (*AbilityRegistry, error) {
	abilities, err := LoadAbilities()
	if err != nil {
		return nil, err
	}
	if err := checkIDs("abilities.json", abilities, abilityID); err != nil {
		return nil, err
	}
	for _, a := range abilities {
		if a.Cost < 1 {
			return nil, fmt.Errorf("abilities.json: %s must cost at least one action", a.ID)
		}
	}
	return NewAbilityRegistry(abilities), nil
}

// MustLoadAbilityRegistry loads the registry, panicking on error.
func MustLoadAbilityRegistry() *AbilityRegistry {
	r, err := LoadAbilityRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// =============================================================================
// Tables
// =============================================================================

// Tables bundles every embedded data table.
type Tables struct {
	Classes   []ClassDef
	Enemies   *EnemyRegistry
	Abilities *AbilityRegistry
	Waves     []WaveDef
}

// LoadTables loads all embedded tables and cross-checks their references.
func LoadTables() (*Tables, error) {
	classes, err := LoadClasses()
	if err != nil {
		return nil, err
	}
	if err := checkIDs("classes.json", classes, func(c *ClassDef) string { return c.ID }); err != nil {
		return nil, err
	}
	enemies, err := LoadEnemyRegistry()
	if err != nil {
		return nil, err
	}
	abilities, err := LoadAbilityRegistry()
	if err != nil {
		return nil, err
	}
	waves, err := LoadWaves(enemies)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		for _, id := range c.Abilities {
			if abilities.GetByID(id) == nil {
				return nil, fmt.Errorf("class %s references unknown ability %s", c.ID, id)
			}
		}
	}
	return &Tables{
		Classes:   classes,
		Enemies:   enemies,
		Abilities: abilities,
		Waves:     waves,
	}, nil
}

// MustLoadTables loads all tables, panicking on error.
func MustLoadTables() *Tables {
	t, err := LoadTables()
	if err != nil {
		panic(err)
	}
	return t
}

// Class returns the class definition with the given ID, or nil if not found.
func (t *Tables) Class(id string) *ClassDef {
	for i := range t.Classes {
		if t.Classes[i].ID == id {
			return &t.Classes[i]
		}
	}
	return nil
}
