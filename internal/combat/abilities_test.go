package combat

import (
	"errors"
	"testing"

	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
)

var testAbilities = gamedata.MustLoadAbilityRegistry()

func ability(t *testing.T, id string) *gamedata.AbilityDef {
	t.Helper()
	a := testAbilities.GetByID(id)
	if a == nil {
		t.Fatalf("ability %q not loaded", id)
	}
	return a
}

func TestMagicMissileNeverMisses(t *testing.T) {
	wizard := newCombatant("Wizard", 32, 16, 6, dice.D(1, 4), grid.Pos(0, 0))
	target := newCombatant("Wyvern", 80, 40, 10, dice.D(2, 10), grid.Pos(12, 7))
	r, seq := scripted(3)

	out, err := Use(r, ability(t, "magic_missile"), wizard, target, 1)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if !out.Hit || out.Damage != 4 || out.ActionsUsed != 1 {
		t.Errorf("Outcome = %+v, want hit for 4 using 1 action", out)
	}
	if target.HP != 76 {
		t.Errorf("target HP = %d, want 76", target.HP)
	}
	if seq.Consumed() != 1 {
		t.Errorf("consumed %d faces, want only the 1d4", seq.Consumed())
	}
}

func TestMagicMissileCasts(t *testing.T) {
	wizard := newCombatant("Wizard", 32, 16, 6, dice.D(1, 4), grid.Pos(0, 0))
	wizard.BonusDamage = 2
	target := newCombatant("Ogre", 40, 17, 8, dice.D(2, 8), grid.Pos(3, 3))
	r, _ := scripted(1, 2, 4)

	out, err := Use(r, ability(t, "magic_missile"), wizard, target, 3)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	want := []int{2, 3, 5}
	if len(out.Missiles) != len(want) {
		t.Fatalf("Missiles = %v, want %v", out.Missiles, want)
	}
	for i := range want {
		if out.Missiles[i] != want[i] {
			t.Errorf("Missiles[%d] = %d, want %d", i, out.Missiles[i], want[i])
		}
	}
	if out.ActionsUsed != 3 || out.Damage != 10 || target.HP != 30 {
		t.Errorf("ActionsUsed=%d Damage=%d HP=%d, want 3, 10, 30", out.ActionsUsed, out.Damage, target.HP)
	}
}

func TestTwinFeintSneakAddedOnce(t *testing.T) {
	tests := []struct {
		name      string
		faces     []int
		wantDmg   int
		wantSneak int
	}{
		// Crit 2d6 (3+4), then 10+8=18 vs off-guard 13 hits for 5, sneak 6.
		{"first strike crits", []int{20, 3, 4, 10, 5, 6, 6}, 7 + 5 + 6, 6},
		// Miss, then crit 2d6 (1+2) with sneak 4.
		{"second strike crits", []int{2, 20, 1, 2, 4, 6}, 3 + 4, 4},
		// Both miss: no damage dice, no sneak.
		{"both miss", []int{1, 1, 6}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rogue := newCombatant("Rogue", 38, 17, 8, dice.D(1, 6), grid.Pos(0, 0))
			target := newCombatant("Ogre", 40, 15, 8, dice.D(2, 8), grid.Pos(1, 0))
			r, seq := scripted(tt.faces...)

			out, err := Use(r, ability(t, "twin_feint"), rogue, target, 1)
			if err != nil {
				t.Fatalf("Use() error = %v", err)
			}
			if out.Damage != tt.wantDmg || out.Sneak != tt.wantSneak {
				t.Errorf("Damage=%d Sneak=%d, want %d %d", out.Damage, out.Sneak, tt.wantDmg, tt.wantSneak)
			}
			if target.HP != 40-tt.wantDmg {
				t.Errorf("target HP = %d, want %d", target.HP, 40-tt.wantDmg)
			}
			if seq.Remaining() != 1 {
				t.Errorf("%d faces left, want exactly 1 (sneak never doubled)", seq.Remaining())
			}
			if target.OffGuard {
				t.Error("target left off-guard after Twin Feint")
			}
			if out.ActionsUsed != 2 || len(out.Strikes) != 2 {
				t.Errorf("ActionsUsed=%d strikes=%d, want 2 and 2", out.ActionsUsed, len(out.Strikes))
			}
		})
	}
}

func TestTwinFeintSecondStrikeIsOffGuard(t *testing.T) {
	// 5+8=13 misses AC 15, the same roll hits the off-guard 13.
	rogue := newCombatant("Rogue", 38, 17, 8, dice.D(1, 6), grid.Pos(0, 0))
	target := newCombatant("Ogre", 40, 15, 8, dice.D(2, 8), grid.Pos(1, 1))
	r, _ := scripted(5, 5, 2, 3)

	out, err := Use(r, ability(t, "twin_feint"), rogue, target, 1)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if out.Strikes[0].Hit || !out.Strikes[1].Hit {
		t.Fatalf("strikes = %+v, want miss then hit", out.Strikes)
	}
	if out.Strikes[1].TargetAC != 13 {
		t.Errorf("second strike AC = %d, want 13", out.Strikes[1].TargetAC)
	}
	if !out.Hit || out.Damage != 5 {
		t.Errorf("Hit=%v Damage=%d, want true and 5", out.Hit, out.Damage)
	}
}

func TestTwinFeintStopsWhenTargetDrops(t *testing.T) {
	rogue := newCombatant("Rogue", 38, 17, 8, dice.D(1, 6), grid.Pos(0, 0))
	target := newCombatant("Goblin", 3, 15, 6, dice.D(1, 6), grid.Pos(1, 0))
	r, seq := scripted(15, 6, 20, 6)

	out, err := Use(r, ability(t, "twin_feint"), rogue, target, 1)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if len(out.Strikes) != 1 || target.HP != 0 {
		t.Errorf("strikes=%d HP=%d, want one strike and a defeated goblin", len(out.Strikes), target.HP)
	}
	if seq.Consumed() != 2 {
		t.Errorf("consumed %d faces, want 2", seq.Consumed())
	}
}

func TestPowerStrikeDoublesDice(t *testing.T) {
	fighter := newCombatant("Fighter", 50, 18, 9, dice.D(1, 10), grid.Pos(0, 0))
	target := newCombatant("Ogre", 40, 17, 8, dice.D(2, 8), grid.Pos(0, 1))
	r, seq := scripted(10, 4, 5)

	out, err := Use(r, ability(t, "power_strike"), fighter, target, 1)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if out.Damage != 4+5+2 || out.ActionsUsed != 2 {
		t.Errorf("Damage=%d ActionsUsed=%d, want 11 and 2", out.Damage, out.ActionsUsed)
	}
	if seq.Remaining() != 0 {
		t.Errorf("%d faces left, want 0", seq.Remaining())
	}
}

func TestEnemyStrikeUsesArchetypeDice(t *testing.T) {
	ogre := newCombatant("Ogre", 40, 17, 8, dice.D(2, 8), grid.Pos(0, 0))
	hero := newCombatant("Fighter", 50, 18, 9, dice.D(1, 10), grid.Pos(1, 0))
	r, seq := scripted(12, 8, 8)

	out, err := Use(r, ability(t, "enemy_strike"), ogre, hero, 1)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if out.Damage != 16 || hero.HP != 34 {
		t.Errorf("Damage=%d HP=%d, want 16 from 2d8 and 34", out.Damage, hero.HP)
	}
	if seq.Remaining() != 0 {
		t.Errorf("%d faces left, want 0", seq.Remaining())
	}
}

func TestSpellsDropShield(t *testing.T) {
	wizard := newCombatant("Wizard", 32, 16, 6, dice.D(1, 4), grid.Pos(0, 0))
	target := newCombatant("Goblin", 20, 15, 6, dice.D(1, 6), grid.Pos(3, 0))
	r, _ := scripted(1)

	if _, err := Use(r, ability(t, "raise_shield"), wizard, nil, 1); err != nil {
		t.Fatalf("raise shield error = %v", err)
	}
	if wizard.EffectiveAC() != 18 {
		t.Fatalf("EffectiveAC() = %d, want 18 with shield", wizard.EffectiveAC())
	}

	// A miss still consumes the shield.
	out, err := Use(r, ability(t, "arcane_blast"), wizard, target, 1)
	if err != nil {
		t.Fatalf("arcane blast error = %v", err)
	}
	if out.Hit {
		t.Fatal("natural 1 with +6 should miss AC 15")
	}
	if !out.ShieldDropped || wizard.ShieldRaised() {
		t.Error("arcane blast should drop the caster's shield")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		ability string
		casts   int
		setup   func(c *gameChars)
		want    error
	}{
		{"valid strike", "strike", 1, nil, nil},
		{"target defeated", "strike", 1, func(c *gameChars) { c.target.HP = 0 }, ErrTargetDefeated},
		{"strike out of range", "strike", 1, func(c *gameChars) { c.target.Position = grid.Pos(2, 0) }, ErrOutOfRange},
		{"arcane blast in range", "arcane_blast", 1, func(c *gameChars) { c.target.Position = grid.Pos(4, 4) }, nil},
		{"arcane blast out of range", "arcane_blast", 1, func(c *gameChars) { c.target.Position = grid.Pos(5, 0) }, ErrOutOfRange},
		{"no target", "strike", 1, func(c *gameChars) { c.noTarget = true }, ErrNoTarget},
		{"shield already raised", "raise_shield", 1, func(c *gameChars) { c.user.TempACBonus = 2 }, ErrShieldRaised},
		{"no potions", "potion", 1, func(c *gameChars) { c.user.Potions = 0 }, ErrNoPotions},
		{"too many casts", "magic_missile", 4, nil, ErrInvalidCasts},
		{"single cast only", "strike", 2, nil, ErrInvalidCasts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &gameChars{
				user:   newCombatant("Wizard", 32, 16, 6, dice.D(1, 4), grid.Pos(0, 0)),
				target: newCombatant("Goblin", 20, 15, 6, dice.D(1, 6), grid.Pos(1, 0)),
			}
			c.user.Potions = 3
			if tt.setup != nil {
				tt.setup(c)
			}
			target := c.target
			if c.noTarget {
				target = nil
			}

			err := Check(ability(t, tt.ability), c.user, target, tt.casts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Check() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPotionAndLesserHeal(t *testing.T) {
	cleric := newCombatant("Cleric", 32, 16, 6, dice.D(1, 6), grid.Pos(0, 0))
	cleric.HP = 1
	cleric.Potions = 1
	r, _ := scripted(3, 3)

	out, err := Use(r, ability(t, "potion"), cleric, nil, 1)
	if err != nil {
		t.Fatalf("potion error = %v", err)
	}
	if out.Healing != 15 || cleric.HP != 16 || cleric.Potions != 0 {
		t.Errorf("Healing=%d HP=%d Potions=%d, want 15, 16, 0", out.Healing, cleric.HP, cleric.Potions)
	}

	out, err = Use(r, ability(t, "lesser_heal"), cleric, nil, 1)
	if err != nil {
		t.Fatalf("lesser heal error = %v", err)
	}
	if out.Healing != 3 || out.ActionsUsed != 1 {
		t.Errorf("one-action heal = %+v, want 3 HP for 1 action", out)
	}

	out, err = Use(r, ability(t, "lesser_heal"), cleric, nil, 2)
	if err != nil {
		t.Fatalf("lesser heal error = %v", err)
	}
	if out.Healing != 3+8 || out.ActionsUsed != 2 || cleric.HP != 30 {
		t.Errorf("two-action heal = %+v HP %d, want 11 HP for 2 actions and 30 HP", out, cleric.HP)
	}
}

// gameChars lets Check cases mutate both sides before the call.
type gameChars struct {
	user, target *entity.Character
	noTarget     bool
}

func TestSneakStrike(t *testing.T) {
	// +8 vs AC 17 (15 off-guard) with a natural 12 hits either way without
	// a critical. Faces after the d20: strike die, then the sneak die when
	// the target was off-guard, then the percentile roll.
	tests := []struct {
		name        string
		offGuard    bool
		faces       []int
		wantDamage  int
		wantSneak   int
		wantExposed bool
	}{
		{"sneak die against off-guard", true, []int{12, 4, 5, 80}, 9, 5, false},
		{"hit exposes on a low roll", false, []int{12, 4, 30}, 4, 0, true},
		{"hit without exposing", false, []int{12, 4, 51}, 4, 0, false},
		{"miss spends off-guard", true, []int{2}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rogue := newCombatant("Rogue", 38, 17, 8, dice.D(1, 6), grid.Pos(0, 0))
			ogre := newCombatant("Ogre", 40, 17, 8, dice.D(2, 8), grid.Pos(1, 0))
			ogre.OffGuard = tt.offGuard
			r, _ := scripted(tt.faces...)

			out, err := Use(r, ability(t, "sneak_strike"), rogue, ogre, 1)
			if err != nil {
				t.Fatalf("Use() error = %v", err)
			}
			if out.ActionsUsed != 1 || out.Damage != tt.wantDamage || out.Sneak != tt.wantSneak {
				t.Errorf("outcome = %+v, want damage %d sneak %d", out, tt.wantDamage, tt.wantSneak)
			}
			if ogre.HP != 40-tt.wantDamage {
				t.Errorf("ogre HP = %d, want %d", ogre.HP, 40-tt.wantDamage)
			}
			if out.Exposed != tt.wantExposed || ogre.OffGuard != tt.wantExposed {
				t.Errorf("Exposed = %v, OffGuard = %v, want %v", out.Exposed, ogre.OffGuard, tt.wantExposed)
			}
		})
	}
}

func TestEnemyStrikeAgainstSanctuary(t *testing.T) {
	// Will save d20+2 vs DC 15, then +8 vs AC 17 with a natural 12.
	tests := []struct {
		name       string
		sanctuary  int
		faces      []int
		wantSave   int
		wantWarded bool
		wantDamage int
	}{
		{"failed save wastes the attack", 3, []int{10}, 12, true, 0},
		{"passed save attacks", 3, []int{13, 12, 4}, 15, false, 4},
		{"no sanctuary", 0, []int{12, 4}, 0, false, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ogre := newCombatant("Ogre", 40, 17, 8, dice.D(1, 6), grid.Pos(1, 0))
			cleric := newCombatant("Cleric", 32, 17, 6, dice.D(1, 6), grid.Pos(0, 0))
			cleric.SanctuaryRounds = tt.sanctuary
			r, _ := scripted(tt.faces...)

			out, err := Use(r, ability(t, "enemy_strike"), ogre, cleric, 1)
			if err != nil {
				t.Fatalf("Use() error = %v", err)
			}
			if out.ActionsUsed != 1 || out.WillSave != tt.wantSave || out.Warded != tt.wantWarded {
				t.Errorf("outcome = %+v, want save %d warded %v", out, tt.wantSave, tt.wantWarded)
			}
			if out.Damage != tt.wantDamage || cleric.HP != 32-tt.wantDamage {
				t.Errorf("damage %d, cleric HP %d, want %d", out.Damage, cleric.HP, tt.wantDamage)
			}
			if cleric.Sanctified() {
				t.Errorf("sanctuary still up with %d rounds", cleric.SanctuaryRounds)
			}
		})
	}
}

func TestSanctuaryCountsDown(t *testing.T) {
	r, _ := scripted()
	cleric := newCombatant("Cleric", 32, 16, 6, dice.D(1, 6), grid.Pos(0, 0))

	out, err := Use(r, ability(t, "sanctuary"), cleric, nil, 1)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if out.ActionsUsed != 1 || cleric.SanctuaryRounds != 3 {
		t.Fatalf("outcome %+v, SanctuaryRounds = %d, want 3", out, cleric.SanctuaryRounds)
	}
	for _, want := range []int{2, 1, 0, 0} {
		cleric.StartTurn()
		if cleric.SanctuaryRounds != want {
			t.Errorf("SanctuaryRounds = %d, want %d", cleric.SanctuaryRounds, want)
		}
	}
}

func TestSpiritLink(t *testing.T) {
	tests := []struct {
		name                 string
		userHP, userMax      int
		targetHP, targetMax  int
		at                   grid.Position
		wantUser, wantTarget int
		wantActions          int
	}{
		{"evens out", 10, 32, 40, 40, grid.Pos(3, 0), 25, 25, 1},
		{"rounds down", 10, 32, 31, 40, grid.Pos(6, 0), 20, 20, 1},
		{"capped at caster max", 20, 20, 30, 40, grid.Pos(1, 0), 20, 25, 1},
		{"out of range", 10, 32, 40, 40, grid.Pos(7, 0), 10, 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleric := newCombatant("Cleric", tt.userMax, 16, 6, dice.D(1, 6), grid.Pos(0, 0))
			cleric.HP = tt.userHP
			ogre := newCombatant("Ogre", tt.targetMax, 17, 8, dice.D(2, 8), tt.at)
			ogre.HP = tt.targetHP
			r, _ := scripted()

			out, err := Use(r, ability(t, "spirit_link"), cleric, ogre, 1)
			if err != nil {
				t.Fatalf("Use() error = %v", err)
			}
			if out.ActionsUsed != tt.wantActions {
				t.Errorf("ActionsUsed = %d, want %d", out.ActionsUsed, tt.wantActions)
			}
			if cleric.HP != tt.wantUser || ogre.HP != tt.wantTarget {
				t.Errorf("HP = %d/%d, want %d/%d", cleric.HP, ogre.HP, tt.wantUser, tt.wantTarget)
			}
			if out.Healing != max(tt.wantUser-tt.userHP, 0) || out.Damage != max(tt.targetHP-tt.wantTarget, 0) {
				t.Errorf("outcome = %+v", out)
			}
		})
	}
}
