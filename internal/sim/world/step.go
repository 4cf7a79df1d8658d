package world

import "trantor/internal/gfxproto"

// step advances the simulation one tick. Phase order is fixed so a tick is
// reproducible from its inputs: eligible commands first, then survival
// accounting, then resource regulation, then ritual settlement.
func (w *World) step() {
	now := w.tick.Add(1)

	// Commands. At most one per player, in ascending id order. Ritual
	// participants are frozen and skipped.
	for _, id := range w.playerIDs() {
		p := w.players[id]
		if p == nil || p.incanting {
			continue
		}
		if cmd, ok := p.due(now); ok {
			w.execute(p, cmd)
		}
	}

	// Survival. Every live player burns one tick; hitting zero is death.
	for _, id := range w.playerIDs() {
		p := w.players[id]
		if p == nil {
			continue
		}
		p.TTL--
		if p.TTL <= 0 {
			w.removePlayer(p, "DEATH")
		}
	}

	w.regulate()

	w.resolveIncantations()
}

// broadcastTiles pushes the current state of a tile to observers after a
// mutation.
func (w *World) broadcastTile(x, y int) {
	w.gfx(gfxproto.Tile(x, y, w.grid.At(x, y).Counts))
}
