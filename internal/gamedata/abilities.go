package gamedata

import "github.com/samdwyer/gridtactics/internal/dice"

// =============================================================================
// ABILITY SYSTEM DESIGN
// =============================================================================
//
// Overview:
// ---------
// Abilities are data-driven actions used by heroes and hostiles during
// combat. They are defined in abilities.json and resolved by the combat
// package. Every attack ability funnels into the one canonical attack roll
// (d20 + attack bonus vs effective AC); the ability only chooses the dice,
// the flat bonus and the reach.
//
// Kinds:
// ------
//   strike        1 action, melee, attacker's own dice
//   sneak_strike  the rogue's strike: a sneak d6 against an off-guard
//                 target, and on a hit a chance to leave it off-guard
//   power_strike  2 actions, melee, attacker's dice doubled, +2 flat
//   twin_feint    2 actions, two melee strikes, the second against an
//                 off-guard target plus one sneak d6 that is never doubled
//   arcane_blast  1 action, range 4, 2d4, drops the caster's shield
//   magic_missile 1-3 actions, range 24, 1d4+1 per action, never misses
//   raise_shield  1 action, +2 AC until the holder's next turn
//   enemy_strike  1 action, melee, archetype dice only
//   potion        1 action, heal 15, consumes a potion
//   lesser_heal   1-2 actions, heal 1d8 (+8 at two actions)
//   spirit_link   1 action, range 6, both combatants' HP set to their
//                 average (rounded down, capped at each MaxHP)
//   sanctuary     1 action, 3 rounds: a hostile attacking the holder must
//                 first pass a Will save (d20+2 vs DC 15); sanctuary ends
//                 after it is tested once
//
// Dice:
// -----
// An ability without "dice" uses the attacker's intrinsic dice (class base
// dice for heroes, archetype dice for hostiles).
//
// Telemetry:
// ----------
// - combat.intent: actor, intent, ability, cost, accepted, damage
// - combat.enemy_turn: enemy, moved, struck

// AbilityKind selects the resolution policy of an ability.
type AbilityKind string

const (
	KindStrike       AbilityKind = "strike"
	KindPowerStrike  AbilityKind = "power_strike"
	KindTwinFeint    AbilityKind = "twin_feint"
	KindArcaneBlast  AbilityKind = "arcane_blast"
	KindMagicMissile AbilityKind = "magic_missile"
	KindRaiseShield  AbilityKind = "raise_shield"
	KindEnemyStrike  AbilityKind = "enemy_strike"
	KindPotion       AbilityKind = "potion"
	KindLesserHeal   AbilityKind = "lesser_heal"
	KindSneakStrike  AbilityKind = "sneak_strike"
	KindSpiritLink   AbilityKind = "spirit_link"
	KindSanctuary    AbilityKind = "sanctuary"
)

// TargetType represents who an ability can target.
type TargetType string

const (
	TargetSelf  TargetType = "self"
	TargetEnemy TargetType = "enemy"
)

// AbilityDef defines an ability loaded from JSON.
type AbilityDef struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Kind        AbilityKind `json:"kind"`
	Target      TargetType  `json:"target"`
	Cost        int         `json:"cost"`                // Actions per use (per cast for multi-cast abilities)
	MaxCasts    int         `json:"maxCasts,omitempty"`  // >1 lets the caster spend several actions at once
	Range       int         `json:"range,omitempty"`     // Tiles; 0 for self abilities
	Dice        dice.Spec   `json:"dice,omitempty"`      // Zero means the attacker's own dice
	ExtraDice   dice.Spec   `json:"extraDice,omitempty"` // Added after resolution, never doubled
	FlatBonus   int         `json:"flatBonus,omitempty"`
	Power       int         `json:"power,omitempty"` // Shield AC, potion healing, heal bonus
	Spell       bool        `json:"spell,omitempty"` // Casting it drops the caster's shield
	Chance      int         `json:"chance,omitempty"` // Percent chance of a rider effect
}

// NeedsTarget returns true if the ability requires a target position.
func (a *AbilityDef) NeedsTarget() bool {
	return a.Target == TargetEnemy
}

// IsOffensive returns true if the ability targets an opponent.
func (a *AbilityDef) IsOffensive() bool {
	return a.Target == TargetEnemy
}

// IsBasicStrike reports whether the ability is a plain one-action melee
// strike, the one bound to the strike intent.
func (a *AbilityDef) IsBasicStrike() bool {
	return a.Kind == KindStrike || a.Kind == KindSneakStrike
}

// IsMultiCast reports whether the ability may be cast several times with
// one intent (one cast per Cost actions).
func (a *AbilityDef) IsMultiCast() bool {
	return a.MaxCasts > 1
}

// AbilitiesFile represents the structure of abilities.json.
type AbilitiesFile struct {
	Abilities []AbilityDef `json:"abilities"`
}

// LoadAbilities loads ability definitions from the embedded abilities.json file.
func LoadAbilities() ([]AbilityDef, error) {
	file, err := Load[AbilitiesFile]("abilities.json")
	if err != nil {
		return nil, err
	}
	return file.Abilities, nil
}
