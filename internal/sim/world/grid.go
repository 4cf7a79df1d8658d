package world

import "trantor/internal/protocol"

// Tile holds the resource stack of one map cell. Counts never go negative:
// they are debited only by a successful take or an incantation settlement and
// credited only by deposits and the regulator.
type Tile struct {
	Counts [protocol.ResourceCount]int
}

// Grid is the toroidal world surface. Coordinates wrap on both axes, so every
// (x, y) pair addresses a valid tile.
type Grid struct {
	W, H  int
	tiles []Tile
}

func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, tiles: make([]Tile, w*h)}
}

// Wrap maps arbitrary coordinates onto the torus.
func (g *Grid) Wrap(x, y int) (int, int) {
	x %= g.W
	if x < 0 {
		x += g.W
	}
	y %= g.H
	if y < 0 {
		y += g.H
	}
	return x, y
}

func (g *Grid) At(x, y int) *Tile {
	x, y = g.Wrap(x, y)
	return &g.tiles[y*g.W+x]
}

// Take debits one unit of r from the tile. It fails with
// ErrInsufficientResource when the tile holds none, leaving the tile
// untouched.
func (g *Grid) Take(x, y int, r protocol.Resource) error {
	t := g.At(x, y)
	if t.Counts[r] < 1 {
		return protocol.ErrInsufficientResource
	}
	t.Counts[r]--
	return nil
}

// Deposit credits n units of r to the tile. It always succeeds.
func (g *Grid) Deposit(x, y int, r protocol.Resource, n int) {
	g.At(x, y).Counts[r] += n
}

// Total sums r across the whole grid.
func (g *Grid) Total(r protocol.Resource) int {
	sum := 0
	for i := range g.tiles {
		sum += g.tiles[i].Counts[r]
	}
	return sum
}

func (g *Grid) Area() int { return g.W * g.H }
