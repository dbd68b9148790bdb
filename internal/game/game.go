package game

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/ui"
)

// Game drives a Session from terminal input and a tick timer.
type Game struct {
	screen   *ui.Screen
	renderer *ui.Renderer
	session  *Session
	tick     time.Duration
}

// New creates a new game instance.
func New(ctx context.Context, cfg Config, tables *gamedata.Tables) (*Game, error) {
	session, err := NewSession(ctx, cfg, tables)
	if err != nil {
		return nil, err
	}

	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}

	return &Game{
		screen:   screen,
		renderer: ui.NewRenderer(screen),
		session:  session,
		tick:     cfg.Tick,
	}, nil
}

// Run executes the main game loop until the player quits or ctx is done.
func (g *Game) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer g.screen.Close()

	go g.ticker(ctx)

	last := time.Now()
	for g.session.Running() {
		g.renderer.Render(g.session.View())

		switch ev := g.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			g.session.HandleKey(ctx, ev)
		case *tcell.EventInterrupt:
			now := ev.When()
			g.session.Tick(ctx, now.Sub(last))
			last = now
		case *tcell.EventResize:
			g.screen.Sync()
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// ticker posts an interrupt every tick so timed transitions advance
// without input.
func (g *Game) ticker(ctx context.Context) {
	t := time.NewTicker(g.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// A full event queue drops the tick; the next one carries the
			// elapsed time.
			_ = g.screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	}
}

// Close cleans up game resources.
func (g *Game) Close() {
	if g.screen != nil {
		g.screen.Close()
	}
}
