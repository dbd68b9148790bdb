package combat

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/gridtactics/internal/dice"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
	"github.com/samdwyer/gridtactics/internal/telemetry"
)

// MaxActions is the player's action budget per turn.
const MaxActions = 3

// enemyStrikeID is the ability every hostile attacks with.
const enemyStrikeID = "enemy_strike"

// Terrain answers bounds and walkability for the encounter map.
type Terrain interface {
	InBounds(p grid.Position) bool
	IsWalkable(p grid.Position) bool
}

// Field is an open rectangular Terrain with optional blocked tiles.
type Field struct {
	Bounds  grid.Bounds
	Blocked map[grid.Position]bool
}

// InBounds implements Terrain.
func (f Field) InBounds(p grid.Position) bool { return f.Bounds.Contains(p) }

// IsWalkable implements Terrain.
func (f Field) IsWalkable(p grid.Position) bool { return f.Bounds.Contains(p) && !f.Blocked[p] }

// Snapshot is a read-only copy of an engine's state.
type Snapshot struct {
	Phase       Phase
	ActionsLeft int
	Round       int
	Winner      Side
	Player      entity.Character
	Enemy       entity.Character
}

// Engine runs one encounter between the player and a single opponent.
//
// The engine owns both combatants from NewEngine until it reaches
// PhaseOver; callers read them through Snapshot and change them only by
// submitting intents.
type Engine struct {
	mu          sync.Mutex
	roller      *dice.Roller
	abilities   *gamedata.AbilityRegistry
	terrain     Terrain
	player      *entity.Character
	enemy       *entity.Character
	phase       Phase
	actionsLeft int
	round       int
	winner      Side
}

// NewEngine creates an engine in PhasePlayerTurn with a full action budget.
func NewEngine(roller *dice.Roller, abilities *gamedata.AbilityRegistry, terrain Terrain, player, enemy *entity.Character) *Engine {
	return &Engine{
		roller:      roller,
		abilities:   abilities,
		terrain:     terrain,
		player:      player,
		enemy:       enemy,
		phase:       PhasePlayerTurn,
		actionsLeft: MaxActions,
		round:       1,
	}
}

// Begin returns the opening events: both spawns and the first turn.
func (e *Engine) Begin() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	return []Event{
		spawned(e.player.Name, SidePlayer, e.player.Position),
		spawned(e.enemy.Name, SideEnemy, e.enemy.Position),
		turnStarted(SidePlayer, e.round),
	}
}

// Submit validates and executes a player intent. Rejected intents change
// nothing. When the intent spends the last action the enemy turn runs
// before Submit returns, and its events are included.
func (e *Engine) Submit(ctx context.Context, in Intent) IntentResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	tracer := telemetry.Tracer("combat")
	ctx, span := tracer.Start(ctx, "combat.intent")
	defer span.End()
	span.SetAttributes(
		attribute.String("actor", e.player.Name),
		attribute.String("intent", in.Kind.String()),
		attribute.String("ability", in.AbilityID),
		attribute.Int("cost", in.Cost),
		attribute.Int("actions_left", e.actionsLeft),
	)

	var res IntentResult
	switch {
	case e.phase == PhaseOver:
		res = rejected(ErrEncounterOver)
	case e.phase != PhasePlayerTurn:
		res = rejected(ErrNotYourTurn)
	case in.Kind == IntentMove:
		res = e.move(in.To)
	case in.Kind == IntentStrike:
		res = e.cast(CastIntent(e.basicStrike(), e.enemy.Position, 0))
	case in.Kind == IntentCast:
		res = e.cast(in)
	default:
		res = rejected(fmt.Errorf("intent %d: %w", in.Kind, ErrUnknownAbility))
	}

	span.SetAttributes(attribute.Bool("accepted", res.Accepted))
	if !res.Accepted {
		span.SetAttributes(attribute.String("reason", res.Reason))
		return res
	}
	if res.Attack != nil {
		span.SetAttributes(
			attribute.Bool("hit", res.Attack.Hit),
			attribute.Bool("critical", res.Attack.Critical),
			attribute.Int("damage", res.Attack.Damage),
		)
	}

	res.Events = append(res.Events, e.settle(ctx)...)
	return res
}

// EndTurn forfeits the player's remaining actions and runs the enemy turn.
func (e *Engine) EndTurn(ctx context.Context) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhasePlayerTurn {
		return nil
	}
	e.actionsLeft = 0
	return e.settle(ctx)
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// ActionsLeft returns the player's remaining actions this turn.
func (e *Engine) ActionsLeft() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actionsLeft
}

// Winner returns the victorious side, or SideNone while the fight goes on.
func (e *Engine) Winner() Side {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.winner
}

// Round returns the current round, starting at 1.
func (e *Engine) Round() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

// Snapshot returns value copies of the engine state and both combatants.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Phase:       e.phase,
		ActionsLeft: e.actionsLeft,
		Round:       e.round,
		Winner:      e.winner,
		Player:      e.player.Clone(),
		Enemy:       e.enemy.Clone(),
	}
}

// IsTileOccupied reports whether a living combatant stands on p.
func (e *Engine) IsTileOccupied(p grid.Position) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.occupied(p)
}

func (e *Engine) occupied(p grid.Position) bool {
	return (e.player.IsAlive() && e.player.Position == p) ||
		(e.enemy.IsAlive() && e.enemy.Position == p)
}

// move relocates the player up to Speed tiles in one action.
func (e *Engine) move(to grid.Position) IntentResult {
	if e.actionsLeft < MoveCost {
		return rejected(ErrInsufficientActions)
	}
	from := e.player.Position
	d := grid.Distance(from, to)
	switch {
	case d == 0:
		return rejected(fmt.Errorf("already at %s: %w", to, ErrIllegalMove))
	case d > e.player.Speed:
		return rejected(fmt.Errorf("%s is %d tiles away, speed is %d: %w", to, d, e.player.Speed, ErrIllegalMove))
	case !e.terrain.InBounds(to) || !e.terrain.IsWalkable(to):
		return rejected(fmt.Errorf("%s is not walkable: %w", to, ErrIllegalMove))
	case e.occupied(to):
		return rejected(fmt.Errorf("%s is occupied: %w", to, ErrIllegalMove))
	}

	e.actionsLeft -= MoveCost
	e.player.Position = to
	return IntentResult{
		Accepted: true,
		Events:   []Event{moved(e.player.Name, from, to)},
	}
}

// basicStrike is the ID of the player's one-action melee strike. A player
// without one is rejected by cast.
func (e *Engine) basicStrike() string {
	for _, id := range e.player.Abilities {
		if a := e.abilities.GetByID(id); a != nil && a.IsBasicStrike() {
			return id
		}
	}
	return "strike"
}

// cast validates and resolves an ability intent for the player.
func (e *Engine) cast(in Intent) IntentResult {
	ability := e.abilities.GetByID(in.AbilityID)
	if ability == nil {
		return rejected(fmt.Errorf("%q: %w", in.AbilityID, ErrUnknownAbility))
	}
	if !e.player.HasAbility(ability.ID) {
		return rejected(fmt.Errorf("%s: %w", ability.Name, ErrAbilityNotKnown))
	}
	casts, cost, err := castCount(ability, in.Cost)
	if err != nil {
		return rejected(err)
	}
	if cost > e.actionsLeft {
		return rejected(fmt.Errorf("%s needs %d, %d left: %w", ability.Name, cost, e.actionsLeft, ErrInsufficientActions))
	}

	var target *entity.Character
	if ability.NeedsTarget() {
		if e.enemy.Position != in.Target {
			return rejected(fmt.Errorf("%s: %w", in.Target, ErrNoTarget))
		}
		target = e.enemy
	}
	if err := Check(ability, e.player, target, casts); err != nil {
		return rejected(err)
	}

	out, events, err := e.use(ability, e.player, target, casts)
	if err != nil {
		return rejected(err)
	}
	e.actionsLeft -= cost
	return IntentResult{Accepted: true, Events: events, Attack: &out}
}

// use resolves ability and reports its events. On error both combatants
// are restored so a failed call leaves no trace.
func (e *Engine) use(ability *gamedata.AbilityDef, user, target *entity.Character, casts int) (Outcome, []Event, error) {
	playerBefore, enemyBefore := *e.player, *e.enemy

	out, err := Use(e.roller, ability, user, target, casts)
	if err != nil {
		*e.player, *e.enemy = playerBefore, enemyBefore
		return Outcome{}, nil, err
	}

	var events []Event
	targetName := user.Name
	if target != nil {
		targetName = target.Name
	}
	if out.WillSave > 0 {
		msg := fmt.Sprintf("%s overcomes %s's sanctuary. (Will %d vs DC %d)", user.Name, targetName, out.WillSave, SanctuaryDC)
		if out.Warded {
			msg = fmt.Sprintf("%s cannot bring itself to attack %s. (Will %d vs DC %d)", user.Name, targetName, out.WillSave, SanctuaryDC)
		}
		events = append(events, Event{
			Kind:    EventAttackResolved,
			Actor:   user.Name,
			Target:  targetName,
			Value:   out.WillSave,
			Message: msg,
		})
	}
	for _, s := range out.Strikes {
		events = append(events, attackResolved(user.Name, targetName, ability.Name, s))
	}
	if out.Sneak > 0 {
		events = append(events, Event{
			Kind:    EventAttackResolved,
			Actor:   user.Name,
			Target:  targetName,
			Delta:   -out.Sneak,
			Message: fmt.Sprintf("%s slips in a sneak attack for %d more damage.", user.Name, out.Sneak),
		})
	}
	for i, dmg := range out.Missiles {
		events = append(events, Event{
			Kind:    EventAttackResolved,
			Actor:   user.Name,
			Target:  targetName,
			Delta:   -dmg,
			Message: fmt.Sprintf("Magic missile %d strikes %s for %d damage.", i+1, targetName, dmg),
		})
	}
	events = append(events, changes(playerBefore, e.player)...)
	events = append(events, changes(enemyBefore, e.enemy)...)
	return out, events, nil
}

// changes reports HP and resource differences of c since before.
func changes(before entity.Character, c *entity.Character) []Event {
	var events []Event
	if c.HP != before.HP {
		delta := c.HP - before.HP
		msg := fmt.Sprintf("%s takes %d damage (%d/%d HP).", c.Name, -delta, c.HP, c.MaxHP)
		if delta > 0 {
			msg = fmt.Sprintf("%s recovers %d HP (%d/%d HP).", c.Name, delta, c.HP, c.MaxHP)
		}
		if !c.IsAlive() {
			msg = fmt.Sprintf("%s has been defeated!", c.Name)
		}
		events = append(events, Event{
			Kind:    EventHPChanged,
			Actor:   c.Name,
			HP:      c.HP,
			Delta:   delta,
			Message: msg,
		})
	}
	if c.Potions != before.Potions {
		events = append(events, Event{
			Kind:     EventResourceChanged,
			Actor:    c.Name,
			Resource: ResourcePotions,
			Value:    c.Potions,
			Delta:    c.Potions - before.Potions,
			Message:  fmt.Sprintf("%s has %d potions left.", c.Name, c.Potions),
		})
	}
	if c.TempACBonus != before.TempACBonus {
		msg := fmt.Sprintf("%s raises a shield (AC %d).", c.Name, c.EffectiveAC())
		if c.TempACBonus == 0 {
			msg = fmt.Sprintf("%s's shield drops.", c.Name)
		}
		events = append(events, Event{
			Kind:     EventResourceChanged,
			Actor:    c.Name,
			Resource: ResourceShield,
			Value:    c.TempACBonus,
			Delta:    c.TempACBonus - before.TempACBonus,
			Message:  msg,
		})
	}
	if c.SanctuaryRounds != before.SanctuaryRounds {
		msg := fmt.Sprintf("%s is under sanctuary (%d rounds).", c.Name, c.SanctuaryRounds)
		if c.SanctuaryRounds == 0 {
			msg = fmt.Sprintf("%s's sanctuary fades.", c.Name)
		}
		events = append(events, Event{
			Kind:     EventResourceChanged,
			Actor:    c.Name,
			Resource: ResourceSanctuary,
			Value:    c.SanctuaryRounds,
			Delta:    c.SanctuaryRounds - before.SanctuaryRounds,
			Message:  msg,
		})
	}
	if c.OffGuard != before.OffGuard {
		msg := fmt.Sprintf("%s is off-guard.", c.Name)
		value := 1
		if !c.OffGuard {
			msg = fmt.Sprintf("%s recovers its guard.", c.Name)
			value = 0
		}
		events = append(events, Event{
			Kind:     EventResourceChanged,
			Actor:    c.Name,
			Resource: ResourceOffGuard,
			Value:    value,
			Delta:    value*2 - 1,
			Message:  msg,
		})
	}
	return events
}

// settle checks for a winner and, once the budget is spent, hands the
// turn to the enemy and back.
func (e *Engine) settle(ctx context.Context) []Event {
	if over := e.checkOver(); over != nil {
		return over
	}
	if e.actionsLeft > 0 {
		return nil
	}

	e.phase = PhaseEnemyTurn
	events := []Event{turnStarted(SideEnemy, e.round)}
	enemyBefore := *e.enemy
	e.enemy.StartTurn()
	events = append(events, changes(enemyBefore, e.enemy)...)

	events = append(events, e.runEnemyTurn(ctx)...)
	if over := e.checkOver(); over != nil {
		return append(events, over...)
	}

	e.round++
	e.phase = PhasePlayerTurn
	e.actionsLeft = MaxActions
	playerBefore := *e.player
	e.player.StartTurn()
	events = append(events, changes(playerBefore, e.player)...)
	return append(events, turnStarted(SidePlayer, e.round))
}

// checkOver ends the encounter when either combatant is down.
func (e *Engine) checkOver() []Event {
	if e.phase == PhaseOver {
		return nil
	}
	var victor string
	switch {
	case !e.enemy.IsAlive():
		e.winner, victor = SidePlayer, e.player.Name
	case !e.player.IsAlive():
		e.winner, victor = SideEnemy, e.enemy.Name
	default:
		return nil
	}
	e.phase = PhaseOver
	e.actionsLeft = 0
	return []Event{finished(e.winner, victor)}
}

// runEnemyTurn executes the enemy's plan: one hop, then one strike.
func (e *Engine) runEnemyTurn(ctx context.Context) []Event {
	tracer := telemetry.Tracer("combat")
	_, span := tracer.Start(ctx, "combat.enemy_turn")
	defer span.End()

	plan := PlanEnemyTurn(*e.enemy, *e.player, engineBoard{e})
	span.SetAttributes(
		attribute.String("enemy", e.enemy.Name),
		attribute.Int("round", e.round),
		attribute.Bool("moved", plan.Moved),
		attribute.Bool("struck", plan.Strike),
	)

	var events []Event
	if plan.Moved {
		e.enemy.Position = plan.To
		events = append(events, moved(e.enemy.Name, plan.From, plan.To))
	}
	if !plan.Strike {
		return events
	}

	ability := e.abilities.GetByID(enemyStrikeID)
	if ability == nil {
		span.SetAttributes(attribute.String("error", "enemy_strike not loaded"))
		return events
	}
	out, strikeEvents, err := e.use(ability, e.enemy, e.player, 1)
	if err != nil {
		span.RecordError(err)
		return events
	}
	span.SetAttributes(
		attribute.Bool("hit", out.Hit),
		attribute.Int("damage", out.Damage),
	)
	return append(events, strikeEvents...)
}

// engineBoard exposes occupancy to the planner without re-locking.
type engineBoard struct{ e *Engine }

func (b engineBoard) InBounds(p grid.Position) bool       { return b.e.terrain.InBounds(p) }
func (b engineBoard) IsWalkable(p grid.Position) bool     { return b.e.terrain.IsWalkable(p) }
func (b engineBoard) IsTileOccupied(p grid.Position) bool { return b.e.occupied(p) }
