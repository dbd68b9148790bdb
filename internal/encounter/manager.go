package encounter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/gridtactics/internal/combat"
	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
	"github.com/samdwyer/gridtactics/internal/telemetry"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultRadius          = 3
	DefaultTransitionDelay = 600 * time.Millisecond
)

// State is the encounter manager's mode.
type State int

const (
	// StateExploring - free movement, watching for hostiles in range
	StateExploring State = iota
	// StateTransitioningToCombat - waiting out the transition delay
	StateTransitioningToCombat
	// StateInCombat - the turn engine is running
	StateInCombat
	// StateTransitioningToExploration - combat is over, waiting out the delay
	StateTransitioningToExploration
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateExploring:
		return "exploring"
	case StateTransitioningToCombat:
		return "transitioning_to_combat"
	case StateInCombat:
		return "in_combat"
	case StateTransitioningToExploration:
		return "transitioning_to_exploration"
	default:
		return "unknown"
	}
}

// Config tunes the manager.
type Config struct {
	Radius          int           // Chebyshev distance that triggers combat
	TransitionDelay time.Duration // Length of each transition phase
	Abilities       *gamedata.AbilityRegistry
}

// Manager runs the exploring/combat cycle for one protagonist. It is driven
// by Tick; the transition delay is elapsed time accounted per tick.
type Manager struct {
	mu          sync.Mutex
	cfg         Config
	roller      *dice.Roller
	terrain     combat.Terrain
	protagonist *entity.Character
	hostiles    []*entity.Character

	state    State
	elapsed  time.Duration
	saved    grid.Position
	opponent *entity.Character
	handle   *Handle
}

// NewManager creates a manager in StateExploring.
func NewManager(cfg Config, roller *dice.Roller, terrain combat.Terrain, protagonist *entity.Character) *Manager {
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	switch {
	case cfg.TransitionDelay == 0:
		cfg.TransitionDelay = DefaultTransitionDelay
	case cfg.TransitionDelay < 0:
		// Negative disables the delay.
		cfg.TransitionDelay = 0
	}
	if cfg.Abilities == nil {
		cfg.Abilities = defaultAbilities()
	}
	return &Manager{
		cfg:         cfg,
		roller:      roller,
		terrain:     terrain,
		protagonist: protagonist,
	}
}

// SetHostiles replaces the hostiles watched while exploring.
func (m *Manager) SetHostiles(hostiles []*entity.Character) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hostiles = hostiles
}

// SetProtagonist replaces the protagonist. A nil protagonist cancels any
// pending encounter and suspends triggering.
func (m *Manager) SetProtagonist(c *entity.Character) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protagonist = c
	if c == nil && m.state == StateTransitioningToCombat {
		m.reset()
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle returns the running encounter, or nil outside StateInCombat.
func (m *Manager) Handle() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Opponent returns the hostile of the current or pending encounter.
func (m *Manager) Opponent() *entity.Character {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opponent
}

// Progress returns how far the current transition has run, from 0 to 1.
// It is 0 outside the transition states.
func (m *Manager) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateTransitioningToCombat, StateTransitioningToExploration:
		if m.cfg.TransitionDelay <= 0 {
			return 1
		}
		p := float64(m.elapsed) / float64(m.cfg.TransitionDelay)
		if p > 1 {
			p = 1
		}
		return p
	default:
		return 0
	}
}

// Trigger begins an encounter with opponent. It is ignored, returning
// nil, unless the manager is exploring with a living protagonist.
func (m *Manager) Trigger(opponent *entity.Character) []combat.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trigger(opponent)
}

// Cancel discards a pending encounter before combat starts. It reports
// whether anything was cancelled.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateTransitioningToCombat {
		return false
	}
	m.reset()
	return true
}

// Tick advances the manager by dt and returns the events it caused.
func (m *Manager) Tick(ctx context.Context, dt time.Duration) []combat.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateExploring:
		if m.protagonist == nil || !m.protagonist.IsAlive() {
			return nil
		}
		for _, h := range m.hostiles {
			if h == nil || !h.IsAlive() {
				continue
			}
			if grid.Distance(m.protagonist.Position, h.Position) <= m.cfg.Radius {
				return m.trigger(h)
			}
		}
		return nil

	case StateTransitioningToCombat:
		if m.protagonist == nil || m.opponent == nil || !m.opponent.IsAlive() {
			m.reset()
			return nil
		}
		m.elapsed += dt
		if m.elapsed < m.cfg.TransitionDelay {
			return nil
		}
		m.handle = start(ctx, m.cfg.Abilities, m.roller, m.terrain, m.protagonist, m.opponent)
		m.state = StateInCombat
		m.elapsed = 0
		events := []combat.Event{{
			Kind:    combat.EventTransitionComplete,
			Actor:   m.opponent.Name,
			Message: "Combat begins!",
		}}
		return append(events, m.handle.Opening()...)

	case StateInCombat:
		if m.handle == nil || !m.handle.Over() {
			return nil
		}
		return m.end(ctx)

	case StateTransitioningToExploration:
		m.elapsed += dt
		if m.elapsed < m.cfg.TransitionDelay {
			return nil
		}
		m.reset()
		return []combat.Event{{
			Kind:    combat.EventTransitionComplete,
			Message: "You resume exploring.",
		}}
	}
	return nil
}

func (m *Manager) trigger(opponent *entity.Character) []combat.Event {
	if m.state != StateExploring || m.protagonist == nil || opponent == nil || !opponent.IsAlive() {
		return nil
	}
	m.state = StateTransitioningToCombat
	m.elapsed = 0
	m.saved = m.protagonist.Position
	m.opponent = opponent
	return []combat.Event{{
		Kind:    combat.EventTransitionBegun,
		Actor:   opponent.Name,
		From:    m.saved,
		To:      opponent.Position,
		Message: fmt.Sprintf("A %s approaches!", opponent.Name),
	}}
}

// end records the result, restores the protagonist and drops the engine.
func (m *Manager) end(ctx context.Context) []combat.Event {
	tracer := telemetry.Tracer("encounter")
	_, span := tracer.Start(ctx, "encounter.end")
	defer span.End()

	snap := m.handle.Snapshot()
	span.SetAttributes(
		attribute.String("encounter.id", m.handle.ID.String()),
		attribute.String("winner", snap.Winner.String()),
		attribute.Int("rounds", snap.Round),
		attribute.Int("protagonist.hp", snap.Player.HP),
	)

	if m.protagonist != nil {
		m.protagonist.Position = m.saved
	}
	m.handle = nil
	m.state = StateTransitioningToExploration
	m.elapsed = 0
	return []combat.Event{{
		Kind:    combat.EventTransitionBegun,
		Side:    snap.Winner,
		To:      m.saved,
		Message: "The dust settles.",
	}}
}

func (m *Manager) reset() {
	m.state = StateExploring
	m.elapsed = 0
	m.opponent = nil
	m.handle = nil
}
