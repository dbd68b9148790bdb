package combat

import (
	"errors"
	"fmt"

	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
)

// MoveCost is the action cost of a move intent.
const MoveCost = 1

// Reasons an intent is rejected by the engine.
var (
	ErrNotYourTurn         = errors.New("not the player's turn")
	ErrEncounterOver       = errors.New("encounter is over")
	ErrInsufficientActions = errors.New("not enough actions left")
	ErrIllegalMove         = errors.New("illegal move")
	ErrInvalidCost         = errors.New("cost does not fit the ability")
)

// IntentKind is the type of a player intent.
type IntentKind int

const (
	IntentMove IntentKind = iota
	IntentStrike
	IntentCast
)

// String returns the intent kind name.
func (k IntentKind) String() string {
	switch k {
	case IntentMove:
		return "move"
	case IntentStrike:
		return "strike"
	case IntentCast:
		return "cast"
	default:
		return "unknown"
	}
}

// Intent is a player request submitted to the engine.
type Intent struct {
	Kind      IntentKind
	To        grid.Position // Move destination
	AbilityID string
	Target    grid.Position // Tile of the targeted combatant
	Cost      int           // 0 means the ability's own cost
}

// MoveIntent moves the player to the given tile.
func MoveIntent(to grid.Position) Intent {
	return Intent{Kind: IntentMove, To: to}
}

// StrikeIntent makes a basic strike against the opponent.
func StrikeIntent() Intent {
	return Intent{Kind: IntentStrike, AbilityID: "strike"}
}

// CastIntent uses an ability on the combatant at target. For multi-cast
// abilities cost selects the number of casts.
func CastIntent(abilityID string, target grid.Position, cost int) Intent {
	return Intent{Kind: IntentCast, AbilityID: abilityID, Target: target, Cost: cost}
}

// IntentResult reports whether an intent was accepted and what it caused.
// A rejected intent never changes engine state.
type IntentResult struct {
	Accepted bool
	Reason   string
	Err      error
	Events   []Event
	Attack   *Outcome // Set for accepted strikes and casts
}

func rejected(err error) IntentResult {
	return IntentResult{Reason: err.Error(), Err: err}
}

// castCount converts an action cost into a number of casts of ability.
func castCount(ability *gamedata.AbilityDef, cost int) (casts, spent int, err error) {
	if ability.Cost <= 0 {
		return 0, 0, fmt.Errorf("%s has cost %d: %w", ability.ID, ability.Cost, ErrInvalidCost)
	}
	if cost == 0 {
		cost = ability.Cost
	}
	if cost < 0 || cost%ability.Cost != 0 {
		return 0, 0, fmt.Errorf("%s with %d actions: %w", ability.ID, cost, ErrInvalidCost)
	}
	casts = cost / ability.Cost
	if casts > maxCasts(ability) {
		return 0, 0, fmt.Errorf("%s allows at most %d casts: %w", ability.ID, maxCasts(ability), ErrInvalidCost)
	}
	return casts, cost, nil
}
