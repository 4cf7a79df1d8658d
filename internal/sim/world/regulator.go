package world

import (
	"math"

	"trantor/internal/protocol"
	"trantor/internal/sim/rules"
)

// regulate tops resource totals back up toward their density targets. Each
// kind's target is ceil(area * density); the shortfall is spawned one unit at
// a time onto uniformly random tiles, bounded by a shared per-tick budget so
// a starved world refills over several ticks instead of in one burst.
func (w *World) regulate() {
	budget := w.cfg.SpawnCap
	area := float64(w.grid.Area())
	touched := map[[2]int]struct{}{}

	for _, r := range protocol.Resources() {
		if budget == 0 {
			break
		}
		target := int(math.Ceil(area * rules.Density[r]))
		deficit := target - w.grid.Total(r)
		for ; deficit > 0 && budget > 0; deficit-- {
			x := w.rng.Intn(w.grid.W)
			y := w.rng.Intn(w.grid.H)
			w.grid.Deposit(x, y, r, 1)
			touched[[2]int{x, y}] = struct{}{}
			budget--
		}
	}

	for key := range touched {
		w.broadcastTile(key[0], key[1])
	}
}
