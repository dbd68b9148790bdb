package combat

import (
	"context"
	"errors"
	"testing"

	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
)

var testTables = gamedata.MustLoadTables()

func hero(t *testing.T, classID string, at grid.Position) *entity.Character {
	t.Helper()
	def := testTables.Class(classID)
	if def == nil {
		t.Fatalf("class %q not loaded", classID)
	}
	c := entity.NewHero("Hero", def)
	c.Position = at
	return c
}

func hostile(t *testing.T, archetype string, at grid.Position) *entity.Character {
	t.Helper()
	def := testTables.Enemies.GetByID(archetype)
	if def == nil {
		t.Fatalf("archetype %q not loaded", archetype)
	}
	c := entity.NewHostile(def.Name, def)
	c.Position = at
	return c
}

func newTestEngine(roller *dice.Roller, player, enemy *entity.Character) *Engine {
	return NewEngine(roller, testTables.Abilities, Field{Bounds: grid.Bounds{Width: 16, Height: 12}}, player, enemy)
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestEngineBegin(t *testing.T) {
	r, _ := scripted()
	e := newTestEngine(r, hero(t, "fighter", grid.Pos(2, 2)), hostile(t, "goblin", grid.Pos(8, 2)))

	events := e.Begin()
	if len(events) != 3 {
		t.Fatalf("Begin() returned %d events, want 3", len(events))
	}
	if events[0].Kind != EventSpawned || events[1].Kind != EventSpawned || events[2].Kind != EventTurnStarted {
		t.Errorf("Begin() kinds = %v %v %v", events[0].Kind, events[1].Kind, events[2].Kind)
	}
	if e.Phase() != PhasePlayerTurn || e.ActionsLeft() != MaxActions || e.Round() != 1 {
		t.Errorf("initial state = %v/%d/%d", e.Phase(), e.ActionsLeft(), e.Round())
	}
}

func TestEngineRejectsOverBudget(t *testing.T) {
	ctx := context.Background()
	r, seq := scripted(20, 10, 10)
	player := hero(t, "fighter", grid.Pos(2, 2))
	enemy := hostile(t, "goblin", grid.Pos(4, 2))
	e := newTestEngine(r, player, enemy)

	for _, to := range []grid.Position{grid.Pos(2, 3), grid.Pos(3, 3)} {
		if res := e.Submit(ctx, MoveIntent(to)); !res.Accepted {
			t.Fatalf("move to %v rejected: %s", to, res.Reason)
		}
	}
	if e.ActionsLeft() != 1 {
		t.Fatalf("ActionsLeft() = %d, want 1", e.ActionsLeft())
	}

	before := e.Snapshot()
	res := e.Submit(ctx, CastIntent("power_strike", enemy.Position, 0))
	if res.Accepted {
		t.Fatal("two-action ability accepted with one action left")
	}
	if !errors.Is(res.Err, ErrInsufficientActions) || res.Reason == "" {
		t.Errorf("Err = %v, Reason = %q", res.Err, res.Reason)
	}
	after := e.Snapshot()
	if after.ActionsLeft != before.ActionsLeft || after.Enemy.HP != before.Enemy.HP || after.Player.Position != before.Player.Position {
		t.Errorf("rejected intent changed state: %+v -> %+v", before, after)
	}
	if seq.Consumed() != 0 {
		t.Errorf("rejected intent rolled %d dice", seq.Consumed())
	}
}

func TestEngineMoveValidation(t *testing.T) {
	tests := []struct {
		name string
		to   grid.Position
		want error
	}{
		{"same tile", grid.Pos(2, 2), ErrIllegalMove},
		{"beyond speed", grid.Pos(8, 2), ErrIllegalMove},
		{"out of bounds", grid.Pos(-1, 2), ErrIllegalMove},
		{"onto the enemy", grid.Pos(4, 2), ErrIllegalMove},
		{"diagonal within speed", grid.Pos(7, 7), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := scripted()
			e := newTestEngine(r, hero(t, "fighter", grid.Pos(2, 2)), hostile(t, "goblin", grid.Pos(4, 2)))
			res := e.Submit(context.Background(), MoveIntent(tt.to))
			if tt.want == nil {
				if !res.Accepted || !hasEvent(res.Events, EventMoved) {
					t.Errorf("move rejected: %s", res.Reason)
				}
				return
			}
			if res.Accepted || !errors.Is(res.Err, tt.want) {
				t.Errorf("Submit() = %+v, want %v", res, tt.want)
			}
			if e.ActionsLeft() != MaxActions {
				t.Errorf("ActionsLeft() = %d after rejected move", e.ActionsLeft())
			}
		})
	}
}

func TestEngineCastValidation(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		want   error
	}{
		{"unknown ability", CastIntent("fireball", grid.Pos(3, 2), 0), ErrUnknownAbility},
		{"ability of another class", CastIntent("magic_missile", grid.Pos(3, 2), 1), ErrAbilityNotKnown},
		{"no one at target", CastIntent("strike", grid.Pos(5, 5), 0), ErrNoTarget},
		{"cost not a multiple", CastIntent("power_strike", grid.Pos(3, 2), 3), ErrInvalidCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := scripted()
			e := newTestEngine(r, hero(t, "fighter", grid.Pos(2, 2)), hostile(t, "goblin", grid.Pos(3, 2)))
			res := e.Submit(context.Background(), tt.intent)
			if res.Accepted || !errors.Is(res.Err, tt.want) {
				t.Errorf("Submit() err = %v, want %v", res.Err, tt.want)
			}
		})
	}
}

func TestEngineEndTurnRunsEnemy(t *testing.T) {
	ctx := context.Background()
	r, seq := scripted(1)
	player := hero(t, "fighter", grid.Pos(2, 2))
	e := newTestEngine(r, player, hostile(t, "goblin", grid.Pos(5, 2)))

	events := e.EndTurn(ctx)
	snap := e.Snapshot()
	if snap.Enemy.Position != grid.Pos(4, 1) {
		t.Errorf("enemy at %v, want (4,1)", snap.Enemy.Position)
	}
	if snap.Phase != PhasePlayerTurn || snap.ActionsLeft != MaxActions || snap.Round != 2 {
		t.Errorf("after EndTurn: phase %v, actions %d, round %d", snap.Phase, snap.ActionsLeft, snap.Round)
	}
	if !hasEvent(events, EventMoved) || hasEvent(events, EventAttackResolved) {
		t.Errorf("enemy turn events = %v", events)
	}
	if seq.Consumed() != 0 {
		t.Errorf("enemy rolled %d dice without striking", seq.Consumed())
	}
	if last := events[len(events)-1]; last.Kind != EventTurnStarted || last.Side != SidePlayer {
		t.Errorf("last event = %+v, want player turn start", last)
	}
}

func TestEngineSpendingLastActionHandsOff(t *testing.T) {
	ctx := context.Background()
	// Power strike misses (1+9 vs 15), strike misses, then the goblin misses (1+6 vs 18).
	r, _ := scripted(1, 1, 1)
	e := newTestEngine(r, hero(t, "fighter", grid.Pos(2, 2)), hostile(t, "goblin", grid.Pos(3, 2)))

	if res := e.Submit(ctx, CastIntent("power_strike", grid.Pos(3, 2), 2)); !res.Accepted {
		t.Fatalf("power strike rejected: %s", res.Reason)
	}
	res := e.Submit(ctx, StrikeIntent())
	if !res.Accepted {
		t.Fatalf("strike rejected: %s", res.Reason)
	}
	if !hasEvent(res.Events, EventTurnStarted) {
		t.Error("last action should run the enemy turn")
	}
	if e.Round() != 2 || e.ActionsLeft() != MaxActions {
		t.Errorf("round %d, actions %d, want 2 and %d", e.Round(), e.ActionsLeft(), MaxActions)
	}
}

func TestEnginePlayerVictory(t *testing.T) {
	ctx := context.Background()
	r, _ := scripted(15, 1)
	enemy := hostile(t, "goblin", grid.Pos(3, 3))
	enemy.HP = 1
	e := newTestEngine(r, hero(t, "fighter", grid.Pos(2, 2)), enemy)

	res := e.Submit(ctx, StrikeIntent())
	if !res.Accepted || res.Attack == nil || !res.Attack.Hit {
		t.Fatalf("strike = %+v", res)
	}
	if e.Phase() != PhaseOver || e.Winner() != SidePlayer {
		t.Errorf("phase %v winner %v, want over/player", e.Phase(), e.Winner())
	}
	if !hasEvent(res.Events, EventEncounterFinished) || !hasEvent(res.Events, EventHPChanged) {
		t.Errorf("events = %v", res.Events)
	}

	res = e.Submit(ctx, MoveIntent(grid.Pos(1, 1)))
	if res.Accepted || !errors.Is(res.Err, ErrEncounterOver) {
		t.Errorf("intent after victory: %+v", res)
	}
	if events := e.EndTurn(ctx); events != nil {
		t.Errorf("EndTurn after victory returned %v", events)
	}
}

func TestEngineEnemyVictory(t *testing.T) {
	ctx := context.Background()
	// Goblin rolls 15+6=21 vs AC 18 and hits for 1.
	r, _ := scripted(15, 1)
	player := hero(t, "fighter", grid.Pos(2, 2))
	player.HP = 1
	e := newTestEngine(r, player, hostile(t, "goblin", grid.Pos(3, 2)))

	events := e.EndTurn(ctx)
	if e.Phase() != PhaseOver || e.Winner() != SideEnemy {
		t.Fatalf("phase %v winner %v, want over/enemy", e.Phase(), e.Winner())
	}
	if last := events[len(events)-1]; last.Kind != EventEncounterFinished || last.Side != SideEnemy {
		t.Errorf("last event = %+v", last)
	}
	if e.Round() != 1 {
		t.Errorf("Round() = %d, defeat should not advance the round", e.Round())
	}
}

func TestEngineShieldLastsUntilNextTurn(t *testing.T) {
	ctx := context.Background()
	// Goblin rolls 11+6=17: it would hit AC 16, but not the shielded 18.
	r, _ := scripted(11)
	player := hero(t, "wizard", grid.Pos(2, 2))
	e := newTestEngine(r, player, hostile(t, "goblin", grid.Pos(3, 2)))

	if res := e.Submit(ctx, CastIntent("raise_shield", grid.Position{}, 0)); !res.Accepted {
		t.Fatalf("raise shield rejected: %s", res.Reason)
	}
	res := e.Submit(ctx, CastIntent("raise_shield", grid.Position{}, 0))
	if res.Accepted || !errors.Is(res.Err, ErrShieldRaised) {
		t.Errorf("second raise shield: %+v", res)
	}

	events := e.EndTurn(ctx)
	snap := e.Snapshot()
	if snap.Player.HP != snap.Player.MaxHP {
		t.Errorf("shielded wizard took damage: %d/%d", snap.Player.HP, snap.Player.MaxHP)
	}
	if snap.Player.ShieldRaised() {
		t.Error("shield should drop at the start of the player's turn")
	}
	dropped := false
	for _, ev := range events {
		if ev.Kind == EventResourceChanged && ev.Resource == ResourceShield && ev.Value == 0 {
			dropped = true
		}
	}
	if !dropped {
		t.Errorf("no shield drop event in %v", events)
	}
}

func TestEngineStrikeUsesClassStrike(t *testing.T) {
	ctx := context.Background()

	// Rogue: natural 12 hits the goblin, 1d6 rolls 3, percentile 99 misses.
	r, _ := scripted(12, 3, 99)
	e := newTestEngine(r, hero(t, "rogue", grid.Pos(2, 2)), hostile(t, "goblin", grid.Pos(3, 2)))
	res := e.Submit(ctx, StrikeIntent())
	if !res.Accepted {
		t.Fatalf("rogue strike rejected: %s", res.Reason)
	}
	if res.Attack == nil || len(res.Attack.Strikes) != 1 || !res.Attack.Hit {
		t.Errorf("rogue strike outcome = %+v", res.Attack)
	}

	r, _ = scripted(12, 3)
	e = newTestEngine(r, hero(t, "wizard", grid.Pos(2, 2)), hostile(t, "goblin", grid.Pos(3, 2)))
	res = e.Submit(ctx, StrikeIntent())
	if res.Accepted || !errors.Is(res.Err, ErrAbilityNotKnown) {
		t.Errorf("wizard strike: %+v", res)
	}
}

func TestEngineSanctuaryWardsEnemyTurn(t *testing.T) {
	ctx := context.Background()
	// Goblin's Will save: 5+2=7 fails DC 15.
	r, _ := scripted(5)
	player := hero(t, "cleric", grid.Pos(2, 2))
	e := newTestEngine(r, player, hostile(t, "goblin", grid.Pos(3, 2)))

	res := e.Submit(ctx, CastIntent("sanctuary", grid.Position{}, 0))
	if !res.Accepted {
		t.Fatalf("sanctuary rejected: %s", res.Reason)
	}
	if !hasEvent(res.Events, EventResourceChanged) {
		t.Errorf("no sanctuary event in %v", res.Events)
	}

	events := e.EndTurn(ctx)
	snap := e.Snapshot()
	if snap.Player.HP != snap.Player.MaxHP {
		t.Errorf("warded cleric took damage: %d/%d", snap.Player.HP, snap.Player.MaxHP)
	}
	if snap.Player.Sanctified() {
		t.Error("sanctuary should end once tested")
	}
	var save, faded bool
	for _, ev := range events {
		switch {
		case ev.Kind == EventAttackResolved && ev.Value == 7:
			save = true
		case ev.Kind == EventResourceChanged && ev.Resource == ResourceSanctuary && ev.Value == 0:
			faded = true
		}
	}
	if !save || !faded {
		t.Errorf("save event %v, fade event %v in %v", save, faded, events)
	}
}

func TestEngineSpiritLink(t *testing.T) {
	r, _ := scripted()
	player := hero(t, "cleric", grid.Pos(2, 2))
	player.HP = 10
	enemy := hostile(t, "goblin", grid.Pos(6, 2))
	e := newTestEngine(r, player, enemy)

	res := e.Submit(context.Background(), CastIntent("spirit_link", enemy.Position, 0))
	if !res.Accepted {
		t.Fatalf("spirit link rejected: %s", res.Reason)
	}
	// (10+20)/2 = 15 each.
	snap := e.Snapshot()
	if snap.Player.HP != 15 || snap.Enemy.HP != 15 {
		t.Errorf("HP = %d/%d, want 15/15", snap.Player.HP, snap.Enemy.HP)
	}
	var up, down bool
	for _, ev := range res.Events {
		if ev.Kind == EventHPChanged && ev.Delta == 5 {
			up = true
		}
		if ev.Kind == EventHPChanged && ev.Delta == -5 {
			down = true
		}
	}
	if !up || !down {
		t.Errorf("HP events missing in %v", res.Events)
	}
}

func TestEnginePotionEvents(t *testing.T) {
	r, _ := scripted()
	player := hero(t, "rogue", grid.Pos(2, 2))
	player.HP = 10
	e := newTestEngine(r, player, hostile(t, "ogre", grid.Pos(9, 9)))

	res := e.Submit(context.Background(), CastIntent("potion", grid.Position{}, 0))
	if !res.Accepted {
		t.Fatalf("potion rejected: %s", res.Reason)
	}
	var hp, potions bool
	for _, ev := range res.Events {
		switch {
		case ev.Kind == EventHPChanged && ev.HP == 25 && ev.Delta == 15:
			hp = true
		case ev.Kind == EventResourceChanged && ev.Resource == ResourcePotions && ev.Value == 2:
			potions = true
		}
	}
	if !hp || !potions {
		t.Errorf("events = %v", res.Events)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r, _ := scripted()
	e := newTestEngine(r, hero(t, "cleric", grid.Pos(2, 2)), hostile(t, "wyvern", grid.Pos(6, 6)))

	snap := e.Snapshot()
	snap.Player.HP = 0
	snap.Enemy.Position = grid.Pos(2, 3)
	if !e.IsTileOccupied(grid.Pos(6, 6)) || e.IsTileOccupied(grid.Pos(2, 3)) {
		t.Error("mutating a snapshot changed the engine")
	}
	if e.Snapshot().Player.HP == 0 {
		t.Error("mutating a snapshot changed the player")
	}
}
