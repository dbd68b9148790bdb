package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/gridtactics/internal/combat"
	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/encounter"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
	"github.com/samdwyer/gridtactics/internal/telemetry"
	"github.com/samdwyer/gridtactics/internal/ui"
	"github.com/samdwyer/gridtactics/internal/world"
)

const (
	maxLog = 100
	// Random waves after the scripted ones grow by one hostile per wave.
	randomWaveBase = 2
	randomWaveMax  = 5
)

// Session is the whole game state, independent of the terminal. Game feeds
// it keys and ticks; tests drive it directly.
type Session struct {
	cfg     Config
	tables  *gamedata.Tables
	seed    int64
	rng     *rand.Rand
	roller  *dice.Roller
	dungeon *world.Dungeon

	hero       *entity.Character
	hostiles   []*entity.Character
	encounters *encounter.Manager
	// engaged is the hostile in the current encounter. The arena reads it
	// while the engine holds its lock, so it must not go through the manager.
	engaged atomic.Pointer[entity.Character]

	state     State
	wave      int
	waveName  string
	cursor    grid.Position
	castCount int
	log       []string
	running   bool
}

// NewSession generates a dungeon, creates the hero and spawns the first wave.
func NewSession(ctx context.Context, cfg Config, tables *gamedata.Tables) (*Session, error) {
	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = dice.NewSeed(); err != nil {
			return nil, err
		}
	}
	return newSession(ctx, cfg, tables, seed, dice.NewRoller(seed))
}

func newSession(ctx context.Context, cfg Config, tables *gamedata.Tables, seed int64, roller *dice.Roller) (*Session, error) {
	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "game.init")
	defer span.End()

	class := tables.Class(cfg.Class)
	if class == nil {
		return nil, fmt.Errorf("unknown class %q", cfg.Class)
	}

	s := &Session{
		cfg:       cfg,
		tables:    tables,
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
		roller:    roller,
		castCount: 1,
		running:   true,
	}

	s.dungeon = world.NewDungeon(world.DefaultWidth, world.DefaultHeight, s.rng)
	s.dungeon.Generate(ctx)
	if len(s.dungeon.Rooms) == 0 {
		return nil, fmt.Errorf("dungeon generated no rooms (seed %d)", seed)
	}

	s.hero = entity.NewHero(cfg.Name, class)
	s.hero.Position = s.dungeon.Rooms[0].Center()

	s.encounters = encounter.NewManager(encounter.Config{
		Radius:          cfg.EncounterRadius,
		TransitionDelay: cfg.TransitionDelay,
		Abilities:       tables.Abilities,
	}, roller, arena{s}, s.hero)

	s.spawnWave(ctx)

	span.SetAttributes(
		attribute.Int64("seed", seed),
		attribute.String("hero.class", class.ID),
		attribute.Int("dungeon.rooms", len(s.dungeon.Rooms)),
		attribute.Int("wave.size", len(s.hostiles)),
	)
	s.logf("%s the %s enters the dungeon. (seed %d)", s.hero.Name, class.Name, seed)
	return s, nil
}

// Running reports whether the player has not quit.
func (s *Session) Running() bool { return s.running }

// State returns the current game state.
func (s *Session) State() State { return s.state }

// Wave returns the zero-based index of the current wave.
func (s *Session) Wave() int { return s.wave }

// Hero returns the protagonist.
func (s *Session) Hero() *entity.Character { return s.hero }

// Hostiles returns the current wave.
func (s *Session) Hostiles() []*entity.Character { return s.hostiles }

// Log returns the message log, oldest first.
func (s *Session) Log() []string { return s.log }

// spawnWave creates the hostiles of the current wave and places them in
// rooms away from the hero, farthest rooms first.
func (s *Session) spawnWave(ctx context.Context) {
	tracer := telemetry.Tracer("game")
	_, span := tracer.Start(ctx, "game.spawn_wave")
	defer span.End()

	var defs []*gamedata.EnemyDef
	if s.wave < len(s.tables.Waves) {
		w := s.tables.Waves[s.wave]
		s.waveName = w.Name
		for _, h := range w.Hostiles {
			def := s.tables.Enemies.GetByID(h.Archetype)
			for i := 0; i < h.Count; i++ {
				defs = append(defs, def)
			}
		}
	} else {
		s.waveName = "Onslaught"
		n := min(randomWaveBase+s.wave-len(s.tables.Waves), randomWaveMax)
		for i := 0; i < n; i++ {
			defs = append(defs, s.tables.Enemies.SpawnRandom(s.rng))
		}
	}

	from := s.dungeon.RoomIndexAt(s.hero.Position)
	if from < 0 {
		from = 0
	}
	rooms := s.dungeon.RoomsByDistance(from)
	if len(rooms) == 0 {
		rooms = []int{from}
	}

	counts := map[string]int{}
	for _, def := range defs {
		counts[def.ID]++
	}
	seen := map[string]int{}

	s.hostiles = nil
	for i, def := range defs {
		name := def.Name
		if counts[def.ID] > 1 {
			name = fmt.Sprintf("%s %c", def.Name, 'A'+seen[def.ID])
		}
		seen[def.ID]++

		h := entity.NewHostile(name, def)
		pos, ok := s.dungeon.RandomFloorInRoom(rooms[i%len(rooms)], s.occupied)
		if !ok {
			continue
		}
		h.Position = pos
		s.hostiles = append(s.hostiles, h)
	}
	s.encounters.SetHostiles(s.hostiles)

	span.SetAttributes(
		attribute.Int("wave", s.wave+1),
		attribute.String("wave.name", s.waveName),
		attribute.Int("wave.size", len(s.hostiles)),
	)
	s.logf("Wave %d: %s (%d hostiles)", s.wave+1, s.waveName, len(s.hostiles))
}

// occupied reports whether the hero or a living hostile stands on p.
func (s *Session) occupied(p grid.Position) bool {
	if s.hero != nil && s.hero.Position == p {
		return true
	}
	return s.hostileAt(p) != nil
}

func (s *Session) hostileAt(p grid.Position) *entity.Character {
	for _, h := range s.hostiles {
		if h.IsAlive() && h.Position == p {
			return h
		}
	}
	return nil
}

func (s *Session) waveCleared() bool {
	for _, h := range s.hostiles {
		if h.IsAlive() {
			return false
		}
	}
	return true
}

// Tick advances the encounter manager and reacts to its transitions.
func (s *Session) Tick(ctx context.Context, dt time.Duration) {
	if s.state == StateUpgrade || s.state == StateDefeat {
		return
	}

	for _, ev := range s.encounters.Tick(ctx, dt) {
		s.record(ev)
		switch ev.Kind {
		case combat.EventTransitionBegun:
			if s.state == StateExplore {
				s.state = StateCombat
				s.engaged.Store(s.encounters.Opponent())
			} else {
				s.finishEncounter(ctx, ev.Side)
			}
		case combat.EventTransitionComplete:
			if opp := s.encounters.Opponent(); opp != nil && s.encounters.State() == encounter.StateInCombat {
				s.cursor = opp.Position
				s.castCount = 1
			}
		}
	}

	// The manager drops a pending transition without events when the
	// opponent is gone before combat starts or the encounter is cancelled.
	if s.state == StateCombat && s.encounters.State() == encounter.StateExploring {
		s.state = StateExplore
		s.engaged.Store(nil)
		s.logf("The encounter is called off.")
	}
}

// finishEncounter runs when the manager leaves combat.
func (s *Session) finishEncounter(ctx context.Context, winner combat.Side) {
	s.engaged.Store(nil)
	if winner == combat.SideEnemy || !s.hero.IsAlive() {
		s.state = StateDefeat
		s.logf("%s has fallen on wave %d. Press q to quit.", s.hero.Name, s.wave+1)
		return
	}
	s.state = StateExplore
	if !s.waveCleared() {
		return
	}

	healed := s.hero.HealFull()
	s.logf("Wave %d cleared! %s recovers %d HP.", s.wave+1, s.hero.Name, healed)
	s.state = StateUpgrade
}

// chooseUpgrade applies the upgrade and starts the next wave.
func (s *Session) chooseUpgrade(ctx context.Context, u entity.Upgrade) {
	s.logf("%s", u.Apply(s.hero))
	s.wave++
	s.state = StateExplore
	s.spawnWave(ctx)
}

// HandleKey applies one key press.
func (s *Session) HandleKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		s.running = false
		return
	case tcell.KeyRune:
		if ev.Rune() == 'q' || ev.Rune() == 'Q' {
			s.running = false
			return
		}
	}

	switch s.state {
	case StateExplore:
		if s.encounters.State() == encounter.StateExploring {
			s.handleExploreKey(ev)
		}
	case StateCombat:
		if h := s.encounters.Handle(); h != nil {
			s.handleCombatKey(ctx, h, ev)
		}
	case StateUpgrade:
		if ev.Key() == tcell.KeyRune {
			if i := int(ev.Rune() - '1'); i >= 0 && i < len(entity.Upgrades) {
				s.chooseUpgrade(ctx, entity.Upgrades[i])
			}
		}
	}
}

func (s *Session) handleExploreKey(ev *tcell.EventKey) {
	dx, dy, ok := arrow(ev)
	if !ok {
		return
	}
	to := s.hero.Position.Add(dx, dy)
	if s.dungeon.IsWalkable(to) && !s.occupied(to) {
		s.hero.Position = to
	}
}

// arrow maps arrow keys to a step.
func arrow(ev *tcell.EventKey) (dx, dy int, ok bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return 0, -1, true
	case tcell.KeyDown:
		return 0, 1, true
	case tcell.KeyLeft:
		return -1, 0, true
	case tcell.KeyRight:
		return 1, 0, true
	}
	return 0, 0, false
}

func (s *Session) record(ev combat.Event) {
	if ev.Message != "" {
		s.logf("%s", ev.Message)
	}
}

func (s *Session) logf(format string, args ...any) {
	s.log = append(s.log, fmt.Sprintf(format, args...))
	if len(s.log) > maxLog {
		s.log = s.log[len(s.log)-maxLog:]
	}
}

// View builds the frame for the renderer.
func (s *Session) View() ui.View {
	v := ui.View{
		Dungeon:  s.dungeon,
		Hero:     s.hero.Clone(),
		Title:    fmt.Sprintf("Wave %d: %s", s.wave+1, s.waveName),
		Progress: s.encounters.Progress(),
		Log:      s.log,
	}
	for _, h := range s.hostiles {
		v.Hostiles = append(v.Hostiles, h.Clone())
	}

	switch s.state {
	case StateCombat:
		if h := s.encounters.Handle(); h != nil {
			snap := h.Snapshot()
			v.Combat = &snap
			v.Hero = snap.Player
			cursor := s.cursor
			v.Cursor = &cursor
			v.Abilities = s.hotbar(snap)
			v.CastCount = s.castCount
		}
	case StateUpgrade:
		v.Menu = append(v.Menu, "Choose an upgrade:")
		for i, u := range entity.Upgrades {
			v.Menu = append(v.Menu, fmt.Sprintf("[%d] %s", i+1, u))
		}
	case StateDefeat:
		v.Menu = []string{"You have been defeated.", fmt.Sprintf("Waves survived: %d", s.wave), "[q] Quit"}
	}
	return v
}

// arena is the combat Terrain: dungeon walkability plus the hostiles that
// are not part of the current encounter.
type arena struct{ s *Session }

func (a arena) InBounds(p grid.Position) bool { return a.s.dungeon.InBounds(p) }

func (a arena) IsWalkable(p grid.Position) bool {
	if !a.s.dungeon.IsWalkable(p) {
		return false
	}
	h := a.s.hostileAt(p)
	return h == nil || h == a.s.engaged.Load()
}
