// Package encounter switches the protagonist between exploration and turn
// based combat.
package encounter

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/gridtactics/internal/combat"
	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
	"github.com/samdwyer/gridtactics/internal/telemetry"
)

var defaultAbilities = sync.OnceValue(gamedata.MustLoadAbilityRegistry)

// Handle is a running encounter. It wraps the turn engine that owns both
// combatants until the encounter is over.
type Handle struct {
	ID      uuid.UUID
	engine  *combat.Engine
	opening []combat.Event
}

// Start begins an encounter with the embedded ability table.
func Start(ctx context.Context, roller *dice.Roller, terrain combat.Terrain, protagonist, opponent *entity.Character) *Handle {
	return start(ctx, defaultAbilities(), roller, terrain, protagonist, opponent)
}

func start(ctx context.Context, abilities *gamedata.AbilityRegistry, roller *dice.Roller, terrain combat.Terrain, protagonist, opponent *entity.Character) *Handle {
	tracer := telemetry.Tracer("encounter")
	_, span := tracer.Start(ctx, "encounter.start")
	defer span.End()

	h := &Handle{
		ID:     uuid.New(),
		engine: combat.NewEngine(roller, abilities, terrain, protagonist, opponent),
	}
	h.opening = h.engine.Begin()

	span.SetAttributes(
		attribute.String("encounter.id", h.ID.String()),
		attribute.String("protagonist", protagonist.Name),
		attribute.String("protagonist.class", protagonist.ClassID),
		attribute.String("opponent", opponent.Name),
		attribute.String("opponent.archetype", opponent.ClassID),
		attribute.Int("distance", protagonist.Position.DistanceTo(opponent.Position)),
	)
	return h
}

// Submit forwards a player intent to the engine.
func (h *Handle) Submit(ctx context.Context, in combat.Intent) combat.IntentResult {
	return h.engine.Submit(ctx, in)
}

// EndTurn forfeits the player's remaining actions.
func (h *Handle) EndTurn(ctx context.Context) []combat.Event {
	return h.engine.EndTurn(ctx)
}

// Opening returns the events produced when the encounter began.
func (h *Handle) Opening() []combat.Event {
	return h.opening
}

// Snapshot returns a read-only copy of the encounter state.
func (h *Handle) Snapshot() combat.Snapshot {
	return h.engine.Snapshot()
}

// Over reports whether one side has been defeated.
func (h *Handle) Over() bool {
	return h.engine.Phase() == combat.PhaseOver
}

// Winner returns the victorious side, or SideNone while the fight goes on.
func (h *Handle) Winner() combat.Side {
	return h.engine.Winner()
}

// IsTileOccupied reports whether a living combatant stands on the tile.
func (h *Handle) IsTileOccupied(p grid.Position) bool {
	return h.engine.IsTileOccupied(p)
}
