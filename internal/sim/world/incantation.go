package world

import (
	"fmt"

	"trantor/internal/gfxproto"
	"trantor/internal/protocol"
	"trantor/internal/sim/rules"
)

// incantation is one in-flight elevation ritual, keyed by its tile. It forms
// when an initiator's incantation command executes with the requirement met,
// then resolves a fixed number of ticks later. Participants are frozen for
// the duration: their queues do not advance until the ritual settles.
type incantation struct {
	X, Y  int
	Level int // level of the participants, not the target

	participants []*Player
	resolveAt    uint64
}

// beginIncantation handles an executed incantation command. With no session
// on the tile, the requirement is checked and a new ritual forms with the
// issuer as first committed participant. A session already forming at the
// same level is joined without re-checking resources; a level mismatch is a
// plain refusal.
func (w *World) beginIncantation(p *Player) {
	if p.Level >= rules.MaxLevel {
		w.sendPlayer(p, protocol.RespKO)
		return
	}
	key := [2]int{p.X, p.Y}
	if inc, busy := w.incants[key]; busy {
		if inc.Level != p.Level {
			w.sendPlayer(p, protocol.RespKO)
			return
		}
		inc.participants = append(inc.participants, p)
		p.incanting = true
		w.sendPlayer(p, protocol.RespElevationUnderway)
		w.gfx(gfxproto.IncantationStart(inc.X, inc.Y, inc.Level, participantIDs(inc)))
		return
	}

	req, ok := rules.Requirement(p.Level)
	if !ok {
		panic(fmt.Sprintf("no elevation requirement for level %d", p.Level))
	}
	if len(w.occupantsAtLevel(p.X, p.Y, p.Level)) < req.Players || !w.tileHasStones(p.X, p.Y, req.Stones) {
		w.sendPlayer(p, protocol.RespKO)
		return
	}

	inc := &incantation{
		X:            p.X,
		Y:            p.Y,
		Level:        p.Level,
		participants: []*Player{p},
		resolveAt:    w.tick.Load() + rules.IncantationResolveTicks,
	}
	w.incants[key] = inc
	p.incanting = true
	w.sendPlayer(p, protocol.RespElevationUnderway)
	w.gfx(gfxproto.IncantationStart(inc.X, inc.Y, inc.Level, participantIDs(inc)))
}

func participantIDs(inc *incantation) []int {
	ids := make([]int, len(inc.participants))
	for i, q := range inc.participants {
		ids[i] = q.ID
	}
	return ids
}

// resolveIncantations settles every ritual whose delay has elapsed. The
// requirement is re-checked against the tile's current state: participants
// may have died or been ejected and stones may be gone.
func (w *World) resolveIncantations() {
	now := w.tick.Load()
	for key, inc := range w.incants {
		if inc.resolveAt > now {
			continue
		}
		delete(w.incants, key)
		w.settleIncantation(inc)
	}
}

func (w *World) settleIncantation(inc *incantation) {
	req, ok := rules.Requirement(inc.Level)
	if !ok {
		panic(fmt.Sprintf("no elevation requirement for level %d", inc.Level))
	}

	// Committed survivors still standing on the ritual tile at the ritual
	// level. Occupancy is re-checked against the whole tile: bystanders at
	// the right level count toward the minimum even if uncommitted.
	present := inc.participants[:0:0]
	for _, p := range inc.participants {
		p.incanting = false
		if p.Alive && p.X == inc.X && p.Y == inc.Y && p.Level == inc.Level {
			present = append(present, p)
		}
	}
	occupants := 0
	for _, p := range w.players {
		if p.X == inc.X && p.Y == inc.Y && p.Level == inc.Level {
			occupants++
		}
	}

	if len(present) == 0 || occupants < req.Players || !w.tileHasStones(inc.X, inc.Y, req.Stones) {
		for _, p := range present {
			w.sendPlayer(p, protocol.RespKO)
		}
		w.gfx(gfxproto.IncantationEnd(inc.X, inc.Y, false))
		return
	}

	for r, n := range req.Stones {
		if n > 0 {
			w.grid.At(inc.X, inc.Y).Counts[r] -= n
		}
	}
	w.gfx(gfxproto.Tile(inc.X, inc.Y, w.grid.At(inc.X, inc.Y).Counts))

	for _, p := range present {
		p.Level++
		w.sendPlayer(p, protocol.CurrentLevelLine(p.Level))
		w.gfx(gfxproto.PlayerLevel(p.ID, p.Level))
		w.logEvent(MatchEvent{Tick: w.tick.Load(), Type: "ELEVATION", Player: p.ID, Team: p.Team.Name, Level: p.Level})
	}
	w.gfx(gfxproto.IncantationEnd(inc.X, inc.Y, true))
	w.checkVictory()
}

// dropFromIncantations detaches a departing player from any ritual. The
// ritual itself keeps running; the re-check at settlement decides its fate.
func (w *World) dropFromIncantations(p *Player) {
	if !p.incanting {
		return
	}
	p.incanting = false
	for _, inc := range w.incants {
		for i, q := range inc.participants {
			if q == p {
				inc.participants = append(inc.participants[:i], inc.participants[i+1:]...)
				return
			}
		}
	}
}

func (w *World) occupantsAtLevel(x, y, level int) []*Player {
	var out []*Player
	for _, id := range w.playerIDs() {
		p := w.players[id]
		if p.X == x && p.Y == y && p.Level == level && !p.incanting {
			out = append(out, p)
		}
	}
	return out
}

func (w *World) tileHasStones(x, y int, need [protocol.ResourceCount]int) bool {
	t := w.grid.At(x, y)
	for r, n := range need {
		if t.Counts[r] < n {
			return false
		}
	}
	return true
}

// checkVictory ends the match when a team fields six players at max level.
func (w *World) checkVictory() {
	if w.winner != "" {
		return
	}
	counts := map[string]int{}
	for _, p := range w.players {
		if p.Level >= rules.MaxLevel {
			counts[p.Team.Name]++
		}
	}
	for _, name := range w.teams.Names() {
		if counts[name] >= 6 {
			w.winner = name
			w.gfx(gfxproto.GameOver(name))
			w.logEvent(MatchEvent{Tick: w.tick.Load(), Type: "GAME_OVER", Team: name})
			return
		}
	}
}
