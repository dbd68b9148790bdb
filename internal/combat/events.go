package combat

import (
	"fmt"

	"github.com/samdwyer/gridtactics/internal/grid"
)

// Phase is the turn engine's state.
type Phase int

const (
	// PhasePlayerTurn - waiting for player intents
	PhasePlayerTurn Phase = iota
	// PhaseEnemyTurn - the enemy script is running
	PhaseEnemyTurn
	// PhaseOver - one side is defeated; nothing more is accepted
	PhaseOver
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseEnemyTurn:
		return "enemy_turn"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// Side identifies one party of an encounter.
type Side int

const (
	SideNone Side = iota
	SidePlayer
	SideEnemy
)

// String returns a human-readable side name.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return "none"
	}
}

// EventKind is the type of an observable event.
type EventKind int

const (
	EventSpawned EventKind = iota
	EventMoved
	EventHPChanged
	EventResourceChanged
	EventTurnStarted
	EventAttackResolved
	EventEncounterFinished
	EventTransitionBegun
	EventTransitionComplete
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventSpawned:
		return "spawned"
	case EventMoved:
		return "moved"
	case EventHPChanged:
		return "hp_changed"
	case EventResourceChanged:
		return "resource_changed"
	case EventTurnStarted:
		return "turn_started"
	case EventAttackResolved:
		return "attack_resolved"
	case EventEncounterFinished:
		return "encounter_finished"
	case EventTransitionBegun:
		return "transition_begun"
	case EventTransitionComplete:
		return "transition_complete"
	default:
		return "unknown"
	}
}

// Resource names carried by EventResourceChanged.
const (
	ResourcePotions   = "potions"
	ResourceShield    = "shield"
	ResourceSanctuary = "sanctuary"
	ResourceOffGuard  = "off_guard"
)

// Event is a state change reported to rendering and logging collaborators.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Actor    string
	Target   string
	From, To grid.Position
	HP       int // New HP for EventHPChanged
	Delta    int // Signed HP or resource change
	Resource string
	Value    int // New resource value
	Side     Side
	Message  string // Combat log line
}

// String returns the combat log line for the event.
func (e Event) String() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Actor, e.Kind)
}

func spawned(name string, side Side, at grid.Position) Event {
	return Event{
		Kind:    EventSpawned,
		Actor:   name,
		To:      at,
		Side:    side,
		Message: fmt.Sprintf("%s enters the fray.", name),
	}
}

func moved(name string, from, to grid.Position) Event {
	return Event{
		Kind:    EventMoved,
		Actor:   name,
		From:    from,
		To:      to,
		Message: fmt.Sprintf("%s moves to %s.", name, to),
	}
}

func turnStarted(side Side, round int) Event {
	return Event{
		Kind:    EventTurnStarted,
		Side:    side,
		Value:   round,
		Message: fmt.Sprintf("Round %d: %s turn.", round, side),
	}
}

func finished(winner Side, victor string) Event {
	return Event{
		Kind:    EventEncounterFinished,
		Actor:   victor,
		Side:    winner,
		Message: fmt.Sprintf("%s is victorious!", victor),
	}
}

// attackResolved describes one attack roll for the combat log.
func attackResolved(actor, target, ability string, res AttackResult) Event {
	var msg string
	switch {
	case res.Critical:
		msg = fmt.Sprintf("%s's %s CRITS %s for %d damage! (%d+%d=%d vs AC %d)",
			actor, ability, target, res.Damage, res.Roll, res.Total-res.Roll, res.Total, res.TargetAC)
	case res.Hit:
		msg = fmt.Sprintf("%s's %s hits %s for %d damage. (%d+%d=%d vs AC %d)",
			actor, ability, target, res.Damage, res.Roll, res.Total-res.Roll, res.Total, res.TargetAC)
	default:
		msg = fmt.Sprintf("%s's %s misses %s. (%d+%d=%d vs AC %d)",
			actor, ability, target, res.Roll, res.Total-res.Roll, res.Total, res.TargetAC)
	}
	return Event{
		Kind:    EventAttackResolved,
		Actor:   actor,
		Target:  target,
		Delta:   -res.HPLost,
		Message: msg,
	}
}
