// Package game provides the main game loop and state management.
package game

// State represents the current game state.
type State int

const (
	// StateExplore is free movement; hostiles in range start an encounter.
	StateExplore State = iota
	// StateCombat covers the transition into combat and the fight itself.
	StateCombat
	// StateUpgrade waits for the player to pick an upgrade after a wave.
	StateUpgrade
	// StateDefeat is terminal; only quitting is possible.
	StateDefeat
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateExplore:
		return "explore"
	case StateCombat:
		return "combat"
	case StateUpgrade:
		return "upgrade"
	case StateDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}
