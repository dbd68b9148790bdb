package combat

import (
	"testing"

	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/grid"
)

// occupancyBoard is an open field with a fixed set of occupied tiles.
type occupancyBoard struct {
	Field
	occupied map[grid.Position]bool
}

func (b occupancyBoard) IsTileOccupied(p grid.Position) bool { return b.occupied[p] }

func newBoard(occupied ...grid.Position) occupancyBoard {
	b := occupancyBoard{
		Field:    Field{Bounds: grid.Bounds{Width: 16, Height: 12}},
		occupied: map[grid.Position]bool{},
	}
	for _, p := range occupied {
		b.occupied[p] = true
	}
	return b
}

func TestPlanEnemyTurn(t *testing.T) {
	tests := []struct {
		name       string
		enemy      grid.Position
		target     grid.Position
		blocked    []grid.Position
		occupied   []grid.Position
		wantTo     grid.Position
		wantMoved  bool
		wantStrike bool
	}{
		{
			// (4,1), (4,2) and (4,3) are all two away; row-major picks (4,1).
			name: "distance three approaches by one hop", enemy: grid.Pos(5, 2), target: grid.Pos(2, 2),
			wantTo: grid.Pos(4, 1), wantMoved: true,
		},
		{
			name: "distance two hops adjacent and strikes", enemy: grid.Pos(4, 2), target: grid.Pos(2, 2),
			wantTo: grid.Pos(3, 1), wantMoved: true, wantStrike: true,
		},
		{
			name: "occupied tiles are skipped", enemy: grid.Pos(4, 2), target: grid.Pos(2, 2),
			occupied: []grid.Position{grid.Pos(3, 1), grid.Pos(3, 2)},
			wantTo:   grid.Pos(3, 3), wantMoved: true, wantStrike: true,
		},
		{
			name: "walls are skipped", enemy: grid.Pos(4, 2), target: grid.Pos(2, 2),
			blocked: []grid.Position{grid.Pos(3, 1), grid.Pos(3, 2), grid.Pos(3, 3)},
			wantTo:  grid.Pos(4, 1), wantMoved: true,
		},
		{
			name: "adjacent enemy strikes without moving", enemy: grid.Pos(3, 3), target: grid.Pos(2, 2),
			wantTo: grid.Pos(3, 3), wantStrike: true,
		},
		{
			name: "boxed in enemy stays", enemy: grid.Pos(0, 0), target: grid.Pos(5, 5),
			occupied: []grid.Position{grid.Pos(1, 0), grid.Pos(0, 1), grid.Pos(1, 1)},
			wantTo:   grid.Pos(0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := newBoard(tt.occupied...)
			board.Blocked = map[grid.Position]bool{}
			for _, p := range tt.blocked {
				board.Blocked[p] = true
			}
			enemy := newCombatant("Goblin", 20, 15, 6, dice.D(1, 6), tt.enemy)
			target := newCombatant("Fighter", 50, 18, 9, dice.D(1, 10), tt.target)

			plan := PlanEnemyTurn(*enemy, *target, board)
			if plan.To != tt.wantTo || plan.Moved != tt.wantMoved || plan.Strike != tt.wantStrike {
				t.Errorf("PlanEnemyTurn() = %+v, want To=%v Moved=%v Strike=%v",
					plan, tt.wantTo, tt.wantMoved, tt.wantStrike)
			}
			if plan.From != tt.enemy {
				t.Errorf("From = %v, want %v", plan.From, tt.enemy)
			}
		})
	}
}

func TestPlanEnemyTurnIsDeterministic(t *testing.T) {
	board := newBoard(grid.Pos(6, 5))
	enemy := newCombatant("Ogre", 40, 17, 8, dice.D(2, 8), grid.Pos(7, 6))
	target := newCombatant("Rogue", 38, 17, 8, dice.D(1, 6), grid.Pos(3, 3))

	first := PlanEnemyTurn(*enemy, *target, board)
	for i := 0; i < 50; i++ {
		if got := PlanEnemyTurn(*enemy, *target, board); got != first {
			t.Fatalf("call %d = %+v, first = %+v", i, got, first)
		}
	}
}

func TestPlanEnemyTurnIgnoresDefeated(t *testing.T) {
	board := newBoard()
	enemy := newCombatant("Goblin", 20, 15, 6, dice.D(1, 6), grid.Pos(3, 2))
	target := newCombatant("Wizard", 32, 16, 6, dice.D(1, 4), grid.Pos(2, 2))

	target.HP = 0
	if plan := PlanEnemyTurn(*enemy, *target, board); plan.Strike {
		t.Error("enemy should not strike a defeated target")
	}

	target.HP, enemy.HP = 32, 0
	if plan := PlanEnemyTurn(*enemy, *target, board); plan.Moved || plan.Strike {
		t.Errorf("defeated enemy planned %+v", plan)
	}
}
