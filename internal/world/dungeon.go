package world

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/gridtactics/internal/grid"
	"github.com/samdwyer/gridtactics/internal/telemetry"
)

const (
	// Default dungeon dimensions
	DefaultWidth  = 60
	DefaultHeight = 22

	// BSP parameters
	minRoomSize = 5  // Minimum room dimension
	maxRoomSize = 12 // Maximum room dimension
	minLeafSize = 8  // Minimum BSP leaf size before stopping split

	// Rooms at least this big in both dimensions may get a pillar
	pillarRoomSize = 7
)

// Dungeon represents the game map. It is the Terrain the combat engine
// queries for bounds and walkability.
type Dungeon struct {
	Width  int
	Height int
	Tiles  [][]Tile
	Rooms  []Room
	rng    *rand.Rand
}

// NewDungeon creates a new dungeon filled with walls. All randomness of
// generation and spawning comes from rng.
func NewDungeon(width, height int, rng *rand.Rand) *Dungeon {
	tiles := make([][]Tile, height)
	for y := range tiles {
		tiles[y] = make([]Tile, width)
		for x := range tiles[y] {
			tiles[y][x] = TileWall
		}
	}

	return &Dungeon{
		Width:  width,
		Height: height,
		Tiles:  tiles,
		Rooms:  make([]Room, 0),
		rng:    rng,
	}
}

// Generate creates the dungeon layout using BSP algorithm.
func (d *Dungeon) Generate(ctx context.Context) {
	tracer := telemetry.Tracer("world")
	_, span := tracer.Start(ctx, "dungeon.generate")
	defer span.End()

	startTime := time.Now()

	// Start BSP with the entire dungeon as root
	root := &bspNode{
		x:      1,
		y:      1,
		width:  d.Width - 2,
		height: d.Height - 2,
	}

	d.splitNode(root)
	d.createRooms(root)
	d.connectRooms(root)
	pillars := d.placePillars()

	span.SetAttributes(
		attribute.Int("dungeon.width", d.Width),
		attribute.Int("dungeon.height", d.Height),
		attribute.Int("dungeon.room_count", len(d.Rooms)),
		attribute.Int("dungeon.pillar_count", pillars),
		attribute.Int64("dungeon.generation_ms", time.Since(startTime).Milliseconds()),
	)
}

// Bounds returns the map rectangle.
func (d *Dungeon) Bounds() grid.Bounds {
	return grid.Bounds{Width: d.Width, Height: d.Height}
}

// InBounds reports whether p lies on the map.
func (d *Dungeon) InBounds(p grid.Position) bool {
	return d.Bounds().Contains(p)
}

// IsWalkable returns true if the given position can be walked on.
func (d *Dungeon) IsWalkable(p grid.Position) bool {
	if !d.InBounds(p) {
		return false
	}
	return d.Tiles[p.Y][p.X].IsPassable()
}

// TileAt returns the tile at the given position. Off-map tiles are walls.
func (d *Dungeon) TileAt(p grid.Position) Tile {
	if !d.InBounds(p) {
		return TileWall
	}
	return d.Tiles[p.Y][p.X]
}

// RoomIndexAt returns the index of the room containing the position, or -1 if not in a room.
func (d *Dungeon) RoomIndexAt(p grid.Position) int {
	for i, room := range d.Rooms {
		if room.Contains(p) {
			return i
		}
	}
	return -1
}

// RandomFloorInRoom returns a random walkable tile within the room that
// taken does not reject. taken may be nil.
func (d *Dungeon) RandomFloorInRoom(roomIndex int, taken func(grid.Position) bool) (grid.Position, bool) {
	if roomIndex < 0 || roomIndex >= len(d.Rooms) {
		return grid.Position{}, false
	}
	room := d.Rooms[roomIndex]
	free := func(p grid.Position) bool {
		return d.IsWalkable(p) && (taken == nil || !taken(p))
	}

	// Try random points until we find a free one (max 100 attempts)
	for i := 0; i < 100; i++ {
		p := grid.Pos(room.X+d.rng.Intn(room.Width), room.Y+d.rng.Intn(room.Height))
		if free(p) {
			return p, true
		}
	}

	// Fall back to a scan of the room
	for y := room.Y; y < room.Y+room.Height; y++ {
		for x := room.X; x < room.X+room.Width; x++ {
			if p := grid.Pos(x, y); free(p) {
				return p, true
			}
		}
	}
	return grid.Position{}, false
}

// RoomsByDistance returns the indices of every room except from, farthest
// first. Ties keep generation order.
func (d *Dungeon) RoomsByDistance(from int) []int {
	out := make([]int, 0, len(d.Rooms))
	for i := range d.Rooms {
		if i != from {
			out = append(out, i)
		}
	}
	if from < 0 || from >= len(d.Rooms) {
		return out
	}
	origin := d.Rooms[from]
	sort.SliceStable(out, func(i, j int) bool {
		return d.Rooms[out[i]].DistanceTo(origin) > d.Rooms[out[j]].DistanceTo(origin)
	})
	return out
}

// bspNode represents a node in the BSP tree.
type bspNode struct {
	x, y          int
	width, height int
	left, right   *bspNode
	room          *Room
}

// isLeaf returns true if this node has no children.
func (n *bspNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// splitNode recursively splits a BSP node.
func (d *Dungeon) splitNode(node *bspNode) {
	// Stop if too small to split
	if node.width < minLeafSize*2 && node.height < minLeafSize*2 {
		return
	}

	// Determine split direction
	var splitHorizontally bool
	if node.width > node.height && node.width >= minLeafSize*2 {
		splitHorizontally = false // Split vertically (left/right)
	} else if node.height >= minLeafSize*2 {
		splitHorizontally = true // Split horizontally (top/bottom)
	} else if node.width >= minLeafSize*2 {
		splitHorizontally = false
	} else {
		return // Can't split
	}

	span := node.width
	if splitHorizontally {
		span = node.height
	}
	lo, hi := minLeafSize, span-minLeafSize
	if hi <= lo {
		return
	}
	splitPos := lo + d.rng.Intn(hi-lo+1)

	if splitHorizontally {
		node.left = &bspNode{x: node.x, y: node.y, width: node.width, height: splitPos}
		node.right = &bspNode{x: node.x, y: node.y + splitPos, width: node.width, height: node.height - splitPos}
	} else {
		node.left = &bspNode{x: node.x, y: node.y, width: splitPos, height: node.height}
		node.right = &bspNode{x: node.x + splitPos, y: node.y, width: node.width - splitPos, height: node.height}
	}

	d.splitNode(node.left)
	d.splitNode(node.right)
}

// createRooms creates rooms in leaf nodes of the BSP tree.
func (d *Dungeon) createRooms(node *bspNode) {
	if node == nil {
		return
	}
	if !node.isLeaf() {
		d.createRooms(node.left)
		d.createRooms(node.right)
		return
	}

	roomWidth := minRoomSize + d.rng.Intn(min(maxRoomSize-minRoomSize+1, node.width-minRoomSize+1))
	roomHeight := minRoomSize + d.rng.Intn(min(maxRoomSize-minRoomSize+1, node.height-minRoomSize+1))

	// Ensure room fits within leaf
	roomWidth = min(roomWidth, node.width-2)
	roomHeight = min(roomHeight, node.height-2)
	if roomWidth < minRoomSize || roomHeight < minRoomSize {
		return
	}

	room := Room{
		X:      node.x + 1 + d.rng.Intn(node.width-roomWidth-1),
		Y:      node.y + 1 + d.rng.Intn(node.height-roomHeight-1),
		Width:  roomWidth,
		Height: roomHeight,
	}
	node.room = &room
	d.Rooms = append(d.Rooms, room)
	d.carveRoom(room)
}

// carveRoom sets all tiles within the room to floor.
func (d *Dungeon) carveRoom(room Room) {
	for y := room.Y; y < room.Y+room.Height; y++ {
		for x := room.X; x < room.X+room.Width; x++ {
			d.carve(grid.Pos(x, y))
		}
	}
}

// carve turns an interior tile into floor. The outer ring stays wall.
func (d *Dungeon) carve(p grid.Position) {
	if p.X > 0 && p.X < d.Width-1 && p.Y > 0 && p.Y < d.Height-1 {
		d.Tiles[p.Y][p.X] = TileFloor
	}
}

// connectRooms connects sibling subtrees with corridors.
func (d *Dungeon) connectRooms(node *bspNode) {
	if node == nil || node.isLeaf() {
		return
	}

	d.connectRooms(node.left)
	d.connectRooms(node.right)

	leftRoom := d.getRoom(node.left)
	rightRoom := d.getRoom(node.right)
	if leftRoom != nil && rightRoom != nil {
		d.carveCorridor(*leftRoom, *rightRoom)
	}
}

// getRoom returns a room from a subtree (any room will do).
func (d *Dungeon) getRoom(node *bspNode) *Room {
	if node == nil {
		return nil
	}
	if node.room != nil {
		return node.room
	}
	if room := d.getRoom(node.left); room != nil {
		return room
	}
	return d.getRoom(node.right)
}

// carveCorridor creates an L-shaped corridor between two room centers.
func (d *Dungeon) carveCorridor(room1, room2 Room) {
	a, b := room1.Center(), room2.Center()

	if d.rng.Intn(2) == 0 {
		d.carveHorizontalTunnel(a.X, b.X, a.Y)
		d.carveVerticalTunnel(a.Y, b.Y, b.X)
	} else {
		d.carveVerticalTunnel(a.Y, b.Y, a.X)
		d.carveHorizontalTunnel(a.X, b.X, b.Y)
	}
}

func (d *Dungeon) carveHorizontalTunnel(x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		d.carve(grid.Pos(x, y))
	}
}

func (d *Dungeon) carveVerticalTunnel(y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		d.carve(grid.Pos(x, y))
	}
}

// placePillars drops a single obstacle into roughly half of the large
// rooms. Pillars avoid the room border and the center row and column, so
// corridors and room connectivity are preserved.
func (d *Dungeon) placePillars() int {
	placed := 0
	for _, room := range d.Rooms {
		if room.Width < pillarRoomSize || room.Height < pillarRoomSize || d.rng.Intn(2) == 0 {
			continue
		}
		c := room.Center()
		for i := 0; i < 10; i++ {
			p := grid.Pos(room.X+1+d.rng.Intn(room.Width-2), room.Y+1+d.rng.Intn(room.Height-2))
			if p.X == c.X || p.Y == c.Y || d.TileAt(p) != TileFloor {
				continue
			}
			d.Tiles[p.Y][p.X] = TilePillar
			placed++
			break
		}
	}
	return placed
}
