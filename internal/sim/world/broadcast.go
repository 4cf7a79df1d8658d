package world

import (
	"math"

	"trantor/internal/gfxproto"
	"trantor/internal/protocol"
)

// broadcast delivers text to every other player, tagged with the direction
// the sound arrives from. Sound travels the shortest toroidal path.
func (w *World) broadcast(p *Player, text string) {
	for _, id := range w.playerIDs() {
		q := w.players[id]
		if q.ID == p.ID {
			continue
		}
		w.sendPlayer(q, protocol.MessageLine(w.bearing(q, p), text))
	}
	w.sendPlayer(p, protocol.RespOK)
	w.gfx(gfxproto.PlayerBroadcast(p.ID, text))
	w.logEvent(MatchEvent{Tick: w.tick.Load(), Type: "BROADCAST", Player: p.ID, Team: p.Team.Name, Detail: text})
}

// bearing returns the sound direction index at the receiver: 0 for the same
// tile, otherwise 1..8 counterclockwise starting directly ahead.
func (w *World) bearing(receiver, sender *Player) int {
	dx := shortest(sender.X-receiver.X, w.grid.W)
	dy := shortest(sender.Y-receiver.Y, w.grid.H)
	if dx == 0 && dy == 0 {
		return 0
	}

	// Angle of the source in the receiver's frame. World angles are
	// measured counterclockwise from east; facing angles follow the same
	// convention.
	angle := math.Atan2(float64(dy), float64(dx)) * 180 / math.Pi
	rel := angle - facingAngle(receiver.Dir)
	for rel < 0 {
		rel += 360
	}
	sector := int(math.Floor(rel/45+0.5)) % 8
	return sector + 1
}

func facingAngle(d Direction) float64 {
	switch d {
	case North:
		return 90
	case East:
		return 0
	case South:
		return 270
	default:
		return 180
	}
}

// shortest maps a raw coordinate delta onto the torus's shortest signed
// distance, preferring the positive side on exact ties.
func shortest(d, size int) int {
	d %= size
	if d < 0 {
		d += size
	}
	if d > size/2 {
		d -= size
	}
	return d
}
