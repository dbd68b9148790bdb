package combat

import (
	"errors"
	"fmt"

	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
)

// Reasons an ability cannot be used. They surface as rejected intents.
var (
	ErrUnknownAbility  = errors.New("unknown ability")
	ErrAbilityNotKnown = errors.New("ability not known by this character")
	ErrNoTarget        = errors.New("no target at that position")
	ErrTargetDefeated  = errors.New("target is already defeated")
	ErrOutOfRange      = errors.New("target is out of range")
	ErrShieldRaised    = errors.New("shield is already raised")
	ErrNoPotions       = errors.New("no potions left")
	ErrInvalidCasts    = errors.New("invalid number of casts")
)

// Outcome is the result of using an ability. ActionsUsed is 0 when the
// ability did nothing.
type Outcome struct {
	ActionsUsed   int
	Hit           bool
	Critical      bool
	Damage        int
	Healing       int
	Sneak         int            // Extra sneak die, never doubled
	Strikes       []AttackResult // One per attack roll
	Missiles      []int          // Damage of each Magic Missile
	ShieldRaised  bool
	ShieldDropped bool
	Exposed       bool // Target left off-guard by a rogue strike
	WillSave      int  // Attacker's save against sanctuary, 0 if none
	Warded        bool // Sanctuary held and the attack never happened
}

// Sanctuary's Will save. Hostiles share a flat bonus.
const (
	SanctuaryDC        = 15
	SanctuaryWillBonus = 2
)

// Check reports why user cannot use ability on target with the given
// number of casts, or nil if it can. It never mutates state.
func Check(ability *gamedata.AbilityDef, user, target *entity.Character, casts int) error {
	if ability == nil {
		return ErrUnknownAbility
	}
	if casts < 1 || casts > maxCasts(ability) {
		return fmt.Errorf("%s x%d: %w", ability.Name, casts, ErrInvalidCasts)
	}

	switch ability.Target {
	case gamedata.TargetEnemy:
		if target == nil {
			return ErrNoTarget
		}
		if !target.IsAlive() {
			return ErrTargetDefeated
		}
		reach := reachOf(ability)
		if d := grid.Distance(user.Position, target.Position); d > reach {
			return fmt.Errorf("%s reaches %d, target is %d away: %w", ability.Name, reach, d, ErrOutOfRange)
		}
	}

	switch ability.Kind {
	case gamedata.KindRaiseShield:
		if user.ShieldRaised() {
			return ErrShieldRaised
		}
	case gamedata.KindPotion:
		if user.Potions <= 0 {
			return ErrNoPotions
		}
	}
	return nil
}

// Use resolves ability from user against target. Self abilities ignore
// target. casts only matters for multi-cast abilities.
//
// Use does not validate the action budget; the Engine does. An early-out
// (dead target, out of range) returns a zero Outcome.
func Use(r *dice.Roller, ability *gamedata.AbilityDef, user, target *entity.Character, casts int) (Outcome, error) {
	if ability == nil {
		return Outcome{}, ErrUnknownAbility
	}
	if user == nil || !user.IsAlive() {
		return Outcome{}, nil
	}

	var (
		out Outcome
		err error
	)
	switch ability.Kind {
	case gamedata.KindStrike:
		out, err = strike(r, ability, user, target, user.Dice)
	case gamedata.KindEnemyStrike:
		out, err = enemyStrike(r, ability, user, target)
	case gamedata.KindSneakStrike:
		out, err = sneakStrike(r, ability, user, target)
	case gamedata.KindPowerStrike:
		out, err = strike(r, ability, user, target, baseDice(ability, user).Doubled())
	case gamedata.KindArcaneBlast:
		out, err = strike(r, ability, user, target, baseDice(ability, user))
	case gamedata.KindTwinFeint:
		out, err = twinFeint(r, ability, user, target)
	case gamedata.KindMagicMissile:
		out, err = magicMissile(r, ability, user, target, casts)
	case gamedata.KindRaiseShield:
		if user.RaiseShield(ability.Power) {
			out = Outcome{ActionsUsed: ability.Cost, ShieldRaised: true}
		}
	case gamedata.KindPotion:
		if user.Potions > 0 {
			user.Potions--
			out = Outcome{ActionsUsed: ability.Cost, Healing: user.Heal(ability.Power)}
		}
	case gamedata.KindLesserHeal:
		out, err = lesserHeal(r, ability, user, casts)
	case gamedata.KindSpiritLink:
		out = spiritLink(ability, user, target)
	case gamedata.KindSanctuary:
		user.SanctuaryRounds = ability.Power
		out = Outcome{ActionsUsed: ability.Cost}
	default:
		return Outcome{}, fmt.Errorf("%s: %w", ability.Kind, ErrUnknownAbility)
	}
	if err != nil {
		return Outcome{}, err
	}

	// Casting a spell ends the caster's shield, hit or miss.
	if ability.Spell && out.ActionsUsed > 0 {
		out.ShieldDropped = user.DropShield()
	}
	return out, nil
}

// strike is a single canonical attack costing the ability's action cost.
func strike(r *dice.Roller, ability *gamedata.AbilityDef, user, target *entity.Character, spec dice.Spec) (Outcome, error) {
	res, err := ResolveAttack(r, user, target, Attack{
		Damage:    spec,
		FlatBonus: ability.FlatBonus,
		Range:     ability.Range,
	})
	if err != nil || res.ActionsUsed == 0 {
		return Outcome{}, err
	}
	return Outcome{
		ActionsUsed: ability.Cost,
		Hit:         res.Hit,
		Critical:    res.Critical,
		Damage:      res.Damage,
		Strikes:     []AttackResult{res},
	}, nil
}

// sneakStrike is the rogue's strike. Against an off-guard target a hit adds
// the sneak die after resolution. Off-guard is spent by the attack, and a hit
// that leaves the target standing exposes it again on a Chance roll.
func sneakStrike(r *dice.Roller, ability *gamedata.AbilityDef, user, target *entity.Character) (Outcome, error) {
	sneaking := target != nil && target.OffGuard
	out, err := strike(r, ability, user, target, user.Dice)
	if err != nil || out.ActionsUsed == 0 {
		return out, err
	}
	target.OffGuard = false
	if !out.Hit {
		return out, nil
	}

	if sneaking && ability.ExtraDice.Valid() && target.IsAlive() {
		sneak, err := r.RollSpec(ability.ExtraDice)
		if err != nil {
			return Outcome{}, err
		}
		out.Sneak = sneak
		out.Damage += sneak
		target.TakeDamage(sneak)
	}
	if ability.Chance > 0 && target.IsAlive() {
		roll, err := r.Roll(1, 100)
		if err != nil {
			return Outcome{}, err
		}
		if roll <= ability.Chance {
			target.OffGuard = true
			out.Exposed = true
		}
	}
	return out, nil
}

// enemyStrike is a hostile's attack. A target under sanctuary makes the
// attacker pass a Will save first. Sanctuary ends once tested, and a failed
// save spends the action without an attack.
func enemyStrike(r *dice.Roller, ability *gamedata.AbilityDef, user, target *entity.Character) (Outcome, error) {
	if target == nil || !target.IsAlive() || !target.Sanctified() {
		return strike(r, ability, user, target, user.Dice)
	}
	if grid.Distance(user.Position, target.Position) > reachOf(ability) {
		return Outcome{}, nil
	}

	save := r.D20() + SanctuaryWillBonus
	target.SanctuaryRounds = 0
	if save < SanctuaryDC {
		return Outcome{ActionsUsed: ability.Cost, WillSave: save, Warded: true}, nil
	}
	out, err := strike(r, ability, user, target, user.Dice)
	if err != nil {
		return Outcome{}, err
	}
	out.WillSave = save
	return out, nil
}

// spiritLink sets both combatants to the average of their HP, rounded down
// and capped at each one's maximum.
func spiritLink(ability *gamedata.AbilityDef, user, target *entity.Character) Outcome {
	if target == nil || !target.IsAlive() {
		return Outcome{}
	}
	if grid.Distance(user.Position, target.Position) > reachOf(ability) {
		return Outcome{}
	}
	avg := (user.HP + target.HP) / 2
	healed := user.SetHP(avg)
	drained := target.SetHP(avg)
	return Outcome{
		ActionsUsed: ability.Cost,
		Hit:         true,
		Healing:     max(healed, 0),
		Damage:      max(-drained, 0),
	}
}

// twinFeint makes two strikes. The second lands against an off-guard target
// and, if it hits, adds the sneak die after resolution so a critical never
// doubles it.
func twinFeint(r *dice.Roller, ability *gamedata.AbilityDef, user, target *entity.Character) (Outcome, error) {
	spec := baseDice(ability, user)
	atk := Attack{Damage: spec, FlatBonus: ability.FlatBonus, Range: ability.Range}

	first, err := ResolveAttack(r, user, target, atk)
	if err != nil || first.ActionsUsed == 0 {
		return Outcome{}, err
	}
	out := Outcome{
		ActionsUsed: ability.Cost,
		Hit:         first.Hit,
		Critical:    first.Critical,
		Damage:      first.Damage,
		Strikes:     []AttackResult{first},
	}

	wasOffGuard := target.OffGuard
	target.OffGuard = true
	second, err := ResolveAttack(r, user, target, atk)
	target.OffGuard = wasOffGuard
	if err != nil {
		return Outcome{}, err
	}
	if second.ActionsUsed == 0 {
		// First strike already dropped the target.
		return out, nil
	}
	out.Strikes = append(out.Strikes, second)
	out.Hit = out.Hit || second.Hit
	out.Critical = out.Critical || second.Critical
	out.Damage += second.Damage

	if second.Hit && ability.ExtraDice.Valid() {
		sneak, err := r.RollSpec(ability.ExtraDice)
		if err != nil {
			return Outcome{}, err
		}
		out.Sneak = sneak
		out.Damage += sneak
		target.TakeDamage(sneak)
	}
	return out, nil
}

// magicMissile fires casts darts that never miss. Each dart is its own
// damage instance; there is no attack roll and no AC check.
func magicMissile(r *dice.Roller, ability *gamedata.AbilityDef, user, target *entity.Character, casts int) (Outcome, error) {
	if target == nil || !target.IsAlive() {
		return Outcome{}, nil
	}
	if grid.Distance(user.Position, target.Position) > ability.Range {
		return Outcome{}, nil
	}
	if casts < 1 || casts > maxCasts(ability) {
		return Outcome{}, ErrInvalidCasts
	}

	out := Outcome{ActionsUsed: ability.Cost * casts, Hit: true}
	for i := 0; i < casts; i++ {
		dmg, err := r.RollSpec(ability.Dice)
		if err != nil {
			return Outcome{}, err
		}
		dmg += ability.FlatBonus
		target.TakeDamage(dmg)
		out.Missiles = append(out.Missiles, dmg)
		out.Damage += dmg
	}
	return out, nil
}

// lesserHeal heals the caster: dice at one cast, dice plus Power at two.
func lesserHeal(r *dice.Roller, ability *gamedata.AbilityDef, user *entity.Character, casts int) (Outcome, error) {
	if casts < 1 || casts > maxCasts(ability) {
		return Outcome{}, ErrInvalidCasts
	}
	amount, err := r.RollSpec(ability.Dice)
	if err != nil {
		return Outcome{}, err
	}
	if casts >= 2 {
		amount += ability.Power
	}
	return Outcome{ActionsUsed: ability.Cost * casts, Healing: user.Heal(amount)}, nil
}

// baseDice is the ability's own dice, or the user's intrinsic dice.
func baseDice(ability *gamedata.AbilityDef, user *entity.Character) dice.Spec {
	if ability.Dice.IsZero() {
		return user.Dice
	}
	return ability.Dice
}

func reachOf(ability *gamedata.AbilityDef) int {
	if ability.Range > 0 {
		return ability.Range
	}
	return MeleeRange
}

func maxCasts(ability *gamedata.AbilityDef) int {
	if ability.MaxCasts > 1 {
		return ability.MaxCasts
	}
	return 1
}
