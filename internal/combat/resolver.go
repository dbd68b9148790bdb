// Package combat provides attack resolution, the ability set, the turn
// engine and the enemy decision procedure.
package combat

import (
	"fmt"

	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/grid"
)

const (
	// MeleeRange is the reach of every melee attack, in tiles.
	MeleeRange = 1
	// NaturalTwenty always hits and always criticals.
	NaturalTwenty = 20
	// CriticalMargin is how far a total must beat AC to critical.
	CriticalMargin = 10
)

// Attack parameterizes the canonical resolution.
type Attack struct {
	Damage    dice.Spec
	FlatBonus int // Added on a hit, never doubled
	Range     int // 0 means melee
}

// AttackResult is the outcome of one attack roll. A zero value means the
// attack never happened (dead target, dead attacker or out of range).
type AttackResult struct {
	ActionsUsed int
	Hit         bool
	Critical    bool
	Roll        int // Natural d20
	Total       int // Roll + attack bonus
	TargetAC    int
	Damage      int // Damage rolled, including flat bonuses
	HPLost      int // Damage actually removed from the target
}

// ResolveAttack rolls attacker's d20 against target's effective AC and
// applies damage on a hit. Every attack ability in the game delegates here.
//
// A critical (natural 20, or total >= AC + 10) rolls twice as many damage
// dice. Flat bonuses are added once. On a miss the target is untouched.
func ResolveAttack(r *dice.Roller, attacker, target *entity.Character, atk Attack) (AttackResult, error) {
	if attacker == nil || target == nil || !attacker.IsAlive() || !target.IsAlive() {
		return AttackResult{}, nil
	}
	reach := atk.Range
	if reach <= 0 {
		reach = MeleeRange
	}
	if grid.Distance(attacker.Position, target.Position) > reach {
		return AttackResult{}, nil
	}
	if !atk.Damage.Valid() {
		return AttackResult{}, fmt.Errorf("resolve attack with %s: %w", atk.Damage, dice.ErrInvalidDiceSpec)
	}

	roll := r.D20()
	res := AttackResult{
		ActionsUsed: 1,
		Roll:        roll,
		Total:       roll + attacker.AttackBonus,
		TargetAC:    target.EffectiveAC(),
	}

	spec := atk.Damage
	switch {
	case res.Roll == NaturalTwenty || res.Total >= res.TargetAC+CriticalMargin:
		res.Hit, res.Critical = true, true
		spec = spec.Doubled()
	case res.Total >= res.TargetAC:
		res.Hit = true
	default:
		return res, nil
	}

	dmg, err := r.RollSpec(spec)
	if err != nil {
		return AttackResult{}, err
	}
	res.Damage = dmg + atk.FlatBonus + attacker.BonusDamage
	res.HPLost = target.TakeDamage(res.Damage)
	return res, nil
}

// Degree returns "critical", "hit" or "miss".
func (r AttackResult) Degree() string {
	switch {
	case r.Critical:
		return "critical"
	case r.Hit:
		return "hit"
	default:
		return "miss"
	}
}
