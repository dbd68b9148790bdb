// Package grid provides integer tile coordinates and king-move distance.
package grid

import "fmt"

// Position is a tile coordinate. It is a value type; movement replaces it.
type Position struct {
	X, Y int
}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// Add returns the position offset by dx, dy.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// String returns the position as (x,y).
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// DistanceTo returns the Chebyshev distance to other.
func (p Position) DistanceTo(other Position) int {
	return Distance(p, other)
}

// Distance returns max(|dx|, |dy|).
func Distance(a, b Position) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Neighbors returns the 8 surrounding tiles in row-major order of the 3x3
// neighborhood (top row left to right, then middle, then bottom), excluding
// p itself. Callers rely on this order for tie-breaking.
func Neighbors(p Position) []Position {
	out := make([]Position, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			out = append(out, p.Add(dx, dy))
		}
	}
	return out
}

// Bounds is a rectangular grid anchored at (0, 0).
type Bounds struct {
	Width, Height int
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
