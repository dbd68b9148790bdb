package game

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/gridtactics/internal/combat"
	"github.com/samdwyer/gridtactics/internal/encounter"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/ui"
)

// maxCastCount is the largest multi-cast count the player can select.
const maxCastCount = 3

// handleCombatKey turns a key press into an intent for the running
// encounter. Keys are ignored outside the player's turn.
func (s *Session) handleCombatKey(ctx context.Context, h *encounter.Handle, ev *tcell.EventKey) {
	snap := h.Snapshot()
	if snap.Phase != combat.PhasePlayerTurn {
		return
	}

	if dx, dy, ok := arrow(ev); ok {
		if to := s.cursor.Add(dx, dy); s.dungeon.InBounds(to) {
			s.cursor = to
		}
		return
	}

	switch ev.Key() {
	case tcell.KeyTab:
		s.cursor = snap.Enemy.Position
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch r := ev.Rune(); r {
	case 'm':
		s.submit(ctx, h, combat.MoveIntent(s.cursor))
	case 's':
		s.submit(ctx, h, combat.StrikeIntent())
	case 'c':
		s.castCount = s.castCount%maxCastCount + 1
		s.logf("Casts per spell: %d", s.castCount)
	case 'e':
		for _, ev := range h.EndTurn(ctx) {
			s.record(ev)
		}
	default:
		if r < '1' || r > '9' {
			return
		}
		abilities := s.castable()
		if i := int(r - '1'); i < len(abilities) {
			a := abilities[i]
			s.submit(ctx, h, combat.CastIntent(a.ID, s.cursor, s.castCost(a)))
		}
	}
}

func (s *Session) submit(ctx context.Context, h *encounter.Handle, in combat.Intent) {
	res := h.Submit(ctx, in)
	if !res.Accepted {
		s.logf("Cannot do that: %s", res.Reason)
		return
	}
	for _, ev := range res.Events {
		s.record(ev)
	}
	if s.hero.IsAlive() && h.Snapshot().Phase == combat.PhasePlayerTurn {
		if opp := s.encounters.Opponent(); opp != nil && opp.IsAlive() && s.cursor == s.hero.Position {
			s.cursor = opp.Position
		}
	}
}

// castable lists the hero's hotbar abilities: everything but the basic
// strike, which has its own key.
func (s *Session) castable() []*gamedata.AbilityDef {
	var out []*gamedata.AbilityDef
	for _, a := range s.tables.Abilities.GetMultiple(s.hero.Abilities) {
		if !a.IsBasicStrike() {
			out = append(out, a)
		}
	}
	return out
}

// castCost is the total action cost sent with a cast. Zero lets the engine
// charge the ability's own cost.
func (s *Session) castCost(a *gamedata.AbilityDef) int {
	if !a.IsMultiCast() {
		return 0
	}
	return min(s.castCount, a.MaxCasts) * a.Cost
}

// hotbar describes the castable abilities for the side panel.
func (s *Session) hotbar(snap combat.Snapshot) []ui.AbilityLine {
	var lines []ui.AbilityLine
	for i, a := range s.castable() {
		cost := fmt.Sprint(a.Cost)
		if a.IsMultiCast() {
			cost = fmt.Sprintf("%d-%d", a.Cost, a.Cost*a.MaxCasts)
		}
		need := a.Cost
		if a.IsMultiCast() {
			need = s.castCost(a)
		}
		lines = append(lines, ui.AbilityLine{
			Key:     rune('1' + i),
			Name:    a.Name,
			Cost:    cost,
			Enabled: snap.Phase == combat.PhasePlayerTurn && need <= snap.ActionsLeft,
		})
	}
	return lines
}
