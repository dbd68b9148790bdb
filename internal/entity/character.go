// Package entity provides the combatants that populate the grid.
package entity

import (
	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
)

// OffGuardPenalty is subtracted from effective AC while a character is off-guard.
const OffGuardPenalty = 2

// Character is a combatant: a hero or a hostile. Name is for display only.
type Character struct {
	Name        string
	ClassID     string // Class or archetype ID from gamedata
	Glyph       rune
	Color       string // Hex color code
	IsEnemy     bool
	MaxHP, HP   int
	BaseAC      int
	AttackBonus int
	BonusDamage int // Flat add to every damage roll
	Speed       int // Tiles per move action
	Dice        dice.Spec
	Position    grid.Position
	Abilities   []string
	Potions     int

	// Status
	OffGuard        bool
	TempACBonus     int
	SanctuaryRounds int // Holder's turns left under sanctuary
}

// NewHero creates a hero from a class definition.
func NewHero(name string, def *gamedata.ClassDef) *Character {
	c := &Character{
		Name:        name,
		ClassID:     def.ID,
		Glyph:       def.SymbolRune(),
		Color:       def.Color,
		MaxHP:       def.HP,
		HP:          def.HP,
		BaseAC:      def.AC,
		AttackBonus: def.AttackBonus,
		Speed:       def.Speed,
		Dice:        def.Dice,
		Potions:     def.Potions,
	}
	c.Abilities = make([]string, len(def.Abilities))
	copy(c.Abilities, def.Abilities)
	return c
}

// NewHostile creates a hostile from an archetype definition. Hostiles only
// know the enemy strike; their damage dice are intrinsic to the archetype.
func NewHostile(name string, def *gamedata.EnemyDef) *Character {
	return &Character{
		Name:        name,
		ClassID:     def.ID,
		Glyph:       def.GlyphRune(),
		Color:       def.Color,
		IsEnemy:     true,
		MaxHP:       def.HP,
		HP:          def.HP,
		BaseAC:      def.AC,
		AttackBonus: def.AttackBonus,
		Speed:       def.Speed,
		Dice:        def.Dice,
		Abilities:   []string{"enemy_strike"},
	}
}

// IsAlive returns true if the character has HP remaining.
func (c *Character) IsAlive() bool { return c.HP > 0 }

// EffectiveAC is base AC plus temporary bonuses, minus the off-guard penalty.
func (c *Character) EffectiveAC() int {
	ac := c.BaseAC + c.TempACBonus
	if c.OffGuard {
		ac -= OffGuardPenalty
	}
	return ac
}

// TakeDamage reduces HP, never below zero, and returns the HP actually lost.
func (c *Character) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if actual > c.HP {
		actual = c.HP
	}
	c.HP -= actual
	return actual
}

// Heal restores HP up to MaxHP and returns the amount actually restored.
// Defeated characters cannot be healed.
func (c *Character) Heal(amount int) int {
	if amount <= 0 || !c.IsAlive() {
		return 0
	}
	actual := amount
	if c.HP+actual > c.MaxHP {
		actual = c.MaxHP - c.HP
	}
	c.HP += actual
	return actual
}

// HealFull restores all HP and returns the amount restored.
func (c *Character) HealFull() int {
	return c.Heal(c.MaxHP - c.HP)
}

// ShieldRaised reports whether a temporary AC bonus is active.
func (c *Character) ShieldRaised() bool { return c.TempACBonus > 0 }

// RaiseShield grants a temporary AC bonus. It returns false, changing
// nothing, if a shield is already up.
func (c *Character) RaiseShield(bonus int) bool {
	if c.ShieldRaised() {
		return false
	}
	c.TempACBonus = bonus
	return true
}

// DropShield removes the temporary AC bonus and reports whether one was active.
func (c *Character) DropShield() bool {
	if !c.ShieldRaised() {
		return false
	}
	c.TempACBonus = 0
	return true
}

// StartTurn clears effects that last until the holder's next turn and
// counts down sanctuary. It reports whether a shield dropped.
func (c *Character) StartTurn() bool {
	c.OffGuard = false
	if c.SanctuaryRounds > 0 {
		c.SanctuaryRounds--
	}
	return c.DropShield()
}

// Sanctified reports whether sanctuary protects the character.
func (c *Character) Sanctified() bool { return c.SanctuaryRounds > 0 }

// SetHP moves HP toward hp through Heal or TakeDamage, so the usual clamps
// apply. It returns the signed change.
func (c *Character) SetHP(hp int) int {
	switch {
	case hp > c.HP:
		return c.Heal(hp - c.HP)
	case hp < c.HP:
		return -c.TakeDamage(c.HP - hp)
	default:
		return 0
	}
}

// HasAbility reports whether the character knows the ability.
func (c *Character) HasAbility(id string) bool {
	for _, a := range c.Abilities {
		if a == id {
			return true
		}
	}
	return false
}

// Clone returns a value copy suitable for read-only snapshots.
func (c *Character) Clone() Character {
	out := *c
	out.Abilities = append([]string(nil), c.Abilities...)
	return out
}
