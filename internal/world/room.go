package world

import "github.com/samdwyer/gridtactics/internal/grid"

// Room represents a rectangular room in the dungeon.
type Room struct {
	X, Y          int // Top-left corner position
	Width, Height int // Dimensions of the room
}

// Center returns the center tile of the room.
func (r Room) Center() grid.Position {
	return grid.Pos(r.X+r.Width/2, r.Y+r.Height/2)
}

// Contains returns true if the given tile is inside the room.
func (r Room) Contains(p grid.Position) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersects returns true if this room overlaps with another room.
func (r Room) Intersects(other Room) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// DistanceTo returns the Chebyshev distance between room centers.
func (r Room) DistanceTo(other Room) int {
	return grid.Distance(r.Center(), other.Center())
}
