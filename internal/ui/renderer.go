package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/gridtactics/internal/combat"
	"github.com/samdwyer/gridtactics/internal/entity"
	"github.com/samdwyer/gridtactics/internal/gamedata"
	"github.com/samdwyer/gridtactics/internal/grid"
	"github.com/samdwyer/gridtactics/internal/world"
)

// logLines is how many combat log lines are shown under the map.
const logLines = 6

// AbilityLine is one entry of the ability hotbar.
type AbilityLine struct {
	Key     rune
	Name    string
	Cost    string // e.g. "1" or "1-3"
	Enabled bool
}

// View is everything the renderer draws for one frame.
type View struct {
	Dungeon   *world.Dungeon
	Hero      entity.Character
	Hostiles  []entity.Character
	Title     string           // Mode banner, e.g. "Wave 1: Goblins"
	Combat    *combat.Snapshot // Nil while exploring
	Cursor    *grid.Position   // Target cursor in combat
	Abilities []AbilityLine
	CastCount int
	Progress  float64  // Transition progress, 0 when idle
	Menu      []string // Modal choices, e.g. upgrades
	Log       []string // Most recent last
}

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Render draws a full frame.
func (r *Renderer) Render(v View) {
	r.screen.Clear()

	if v.Dungeon != nil {
		r.drawMap(v)
		r.drawPanel(v.Dungeon.Width+2, v)
		r.drawLog(v.Dungeon.Height+1, v.Log)
	}
	if len(v.Menu) > 0 {
		r.drawMenu(v.Menu)
	}

	r.screen.Show()
}

func (r *Renderer) drawMap(v View) {
	d := v.Dungeon
	dim := v.Progress > 0 && v.Progress < 1

	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			tile := d.TileAt(grid.Pos(x, y))
			style := tileStyle(tile)
			if dim {
				style = style.Dim(true)
			}
			r.screen.SetContent(x, y, tile.Rune(), style)
		}
	}

	for _, h := range v.Hostiles {
		r.drawCharacter(h, tcell.ColorRed)
	}
	r.drawCharacter(v.Hero, tcell.ColorYellow)

	if v.Cursor != nil {
		p := *v.Cursor
		ch := d.TileAt(p).Rune()
		for _, h := range v.Hostiles {
			if h.Position == p && h.IsAlive() {
				ch = h.Glyph
			}
		}
		r.screen.SetContent(p.X, p.Y, ch, tcell.StyleDefault.Reverse(true))
	}
}

func (r *Renderer) drawCharacter(c entity.Character, fallback tcell.Color) {
	color, err := gamedata.ParseHexColor(c.Color)
	if err != nil {
		color = fallback
	}
	style := tcell.StyleDefault.Foreground(color).Bold(true)
	glyph := c.Glyph
	if !c.IsAlive() {
		glyph = '%'
		style = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	}
	r.screen.SetContent(c.Position.X, c.Position.Y, glyph, style)
}

func (r *Renderer) drawPanel(x int, v View) {
	bold := tcell.StyleDefault.Bold(true)
	plain := tcell.StyleDefault
	muted := tcell.StyleDefault.Foreground(tcell.ColorGray)
	y := 0

	line := func(style tcell.Style, format string, args ...any) {
		r.screen.DrawText(x, y, fmt.Sprintf(format, args...), style)
		y++
	}

	line(bold, "%s", v.Title)
	y++
	h := v.Hero
	line(bold, "%s the %s", h.Name, h.ClassID)
	line(hpStyle(h), "HP %d/%d", h.HP, h.MaxHP)
	line(plain, "AC %d  Atk %+d  Dmg %s%s", h.EffectiveAC(), h.AttackBonus, h.Dice, bonus(h.BonusDamage))
	line(plain, "Speed %d  Potions %d", h.Speed, h.Potions)
	if h.ShieldRaised() {
		line(plain, "Shield raised (+%d AC)", h.TempACBonus)
	}
	if h.Sanctified() {
		line(plain, "Sanctuary (%d rounds)", h.SanctuaryRounds)
	}
	y++

	if v.Combat != nil {
		c := v.Combat
		e := c.Enemy
		line(bold, "Round %d - %s", c.Round, c.Phase)
		line(plain, "Actions %s", pips(c.ActionsLeft, combat.MaxActions))
		line(hpStyle(e), "%s HP %d/%d AC %d", e.Name, e.HP, e.MaxHP, e.EffectiveAC())
		if e.OffGuard {
			line(muted, "off-guard")
		}
		line(muted, "Distance %d", grid.Distance(h.Position, e.Position))
		y++
		for _, a := range v.Abilities {
			style := plain
			if !a.Enabled {
				style = muted
			}
			line(style, "[%c] %s (%s)", a.Key, a.Name, a.Cost)
		}
		if v.CastCount > 1 {
			line(plain, "Casts: %d", v.CastCount)
		}
		y++
		line(muted, "arrows aim  m move  s strike")
		line(muted, "c casts  e end turn  q quit")
		return
	}

	if v.Progress > 0 {
		line(bold, "%s", progressBar(v.Progress, 20))
		return
	}
	alive := 0
	for _, e := range v.Hostiles {
		if e.IsAlive() {
			alive++
		}
	}
	line(plain, "Hostiles left: %d", alive)
	y++
	line(muted, "arrows move  q quit")
}

func (r *Renderer) drawLog(y int, log []string) {
	start := len(log) - logLines
	if start < 0 {
		start = 0
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for _, msg := range log[start:] {
		r.screen.DrawText(0, y, msg, style)
		y++
	}
}

func (r *Renderer) drawMenu(items []string) {
	w, h := r.screen.Size()
	width := 0
	for _, it := range items {
		width = max(width, len(it))
	}
	x0 := max(0, (w-width-4)/2)
	y0 := max(0, (h-len(items)-2)/2)
	box := tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)

	for y := y0; y < y0+len(items)+2; y++ {
		for x := x0; x < x0+width+4; x++ {
			r.screen.SetContent(x, y, ' ', box)
		}
	}
	for i, it := range items {
		r.screen.DrawText(x0+2, y0+1+i, it, box)
	}
}

// tileStyle returns the appropriate style for a tile type.
func tileStyle(tile world.Tile) tcell.Style {
	switch tile {
	case world.TileWall:
		return tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	case world.TileFloor:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	case world.TilePillar:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite)
	default:
		return tcell.StyleDefault
	}
}

func hpStyle(c entity.Character) tcell.Style {
	switch {
	case c.MaxHP == 0 || c.HP*4 <= c.MaxHP:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case c.HP*2 <= c.MaxHP:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
}

func bonus(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%+d", n)
}

func pips(n, total int) string {
	out := make([]rune, total)
	for i := range out {
		out[i] = '-'
		if i < n {
			out[i] = '*'
		}
	}
	return string(out)
}

func progressBar(p float64, width int) string {
	filled := int(p * float64(width))
	out := make([]rune, width)
	for i := range out {
		out[i] = '.'
		if i < filled {
			out[i] = '='
		}
	}
	return "[" + string(out) + "]"
}
