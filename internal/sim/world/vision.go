package world

import "trantor/internal/protocol"

// vision assembles the look reply: a pyramid of rows 0..level, each row
// wider by one tile to each side, read left to right from the player's point
// of view. Tile 0 is the player's own tile and includes the player.
func (w *World) vision(p *Player) [][]string {
	fx, fy := p.Dir.Delta()
	// Left-hand unit vector, a quarter turn counterclockwise from facing.
	lx, ly := -fy, fx

	tiles := make([][]string, 0, (p.Level+1)*(p.Level+1))
	for i := 0; i <= p.Level; i++ {
		for j := i; j >= -i; j-- {
			x, y := w.grid.Wrap(p.X+fx*i+lx*j, p.Y+fy*i+ly*j)
			tiles = append(tiles, w.tileObjects(x, y))
		}
	}
	return tiles
}

// tileObjects lists a tile's contents as wire words: one "joueur" per
// occupant, then one resource name per unit, in wire order.
func (w *World) tileObjects(x, y int) []string {
	var objs []string
	for _, id := range w.playerIDs() {
		if q := w.players[id]; q.X == x && q.Y == y {
			objs = append(objs, "joueur")
		}
	}
	counts := w.grid.At(x, y).Counts
	for _, r := range protocol.Resources() {
		for n := 0; n < counts[r]; n++ {
			objs = append(objs, r.String())
		}
	}
	return objs
}
