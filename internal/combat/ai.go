package combat

import (
	"slices"

	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/grid"
)

// Board answers the tile queries the enemy script needs.
type Board interface {
	InBounds(p grid.Position) bool
	IsWalkable(p grid.Position) bool
	IsTileOccupied(p grid.Position) bool
}

// Plan is an enemy's turn: at most one hop, then at most one strike.
type Plan struct {
	From, To grid.Position
	Moved    bool
	Strike   bool
}

// PlanEnemyTurn decides the enemy's turn from read-only copies of both
// combatants. It is deterministic: equal inputs give equal plans.
//
// When the target is farther than one tile the enemy hops to the free
// neighbor closest to the target, ties broken by row-major scan order.
// It then strikes if the target is alive and adjacent.
func PlanEnemyTurn(enemy, target entity.Character, board Board) Plan {
	plan := Plan{From: enemy.Position, To: enemy.Position}
	if !enemy.IsAlive() {
		return plan
	}

	if grid.Distance(enemy.Position, target.Position) > MeleeRange {
		var candidates []grid.Position
		for _, p := range grid.Neighbors(enemy.Position) {
			if board.InBounds(p) && board.IsWalkable(p) && !board.IsTileOccupied(p) {
				candidates = append(candidates, p)
			}
		}
		slices.SortStableFunc(candidates, func(a, b grid.Position) int {
			return grid.Distance(a, target.Position) - grid.Distance(b, target.Position)
		})
		if len(candidates) > 0 {
			plan.To = candidates[0]
			plan.Moved = true
		}
	}

	plan.Strike = target.IsAlive() && grid.Distance(plan.To, target.Position) <= MeleeRange
	return plan
}
