package world

import (
	"trantor/internal/gfxproto"
	"trantor/internal/protocol"
	"trantor/internal/sim/rules"
)

// execute applies one eligible command. Replies go out on the player's line
// buffer; world mutations are narrated to observers as deltas.
func (w *World) execute(p *Player, cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.CmdForward:
		p.X, p.Y = p.front(w.grid)
		w.sendPlayer(p, protocol.RespOK)
		w.gfx(gfxproto.PlayerPos(p.ID, p.X, p.Y, p.Dir.Wire()))

	case protocol.CmdTurnRight:
		p.Dir = p.Dir.TurnRight()
		w.sendPlayer(p, protocol.RespOK)
		w.gfx(gfxproto.PlayerPos(p.ID, p.X, p.Y, p.Dir.Wire()))

	case protocol.CmdTurnLeft:
		p.Dir = p.Dir.TurnLeft()
		w.sendPlayer(p, protocol.RespOK)
		w.gfx(gfxproto.PlayerPos(p.ID, p.X, p.Y, p.Dir.Wire()))

	case protocol.CmdLook:
		w.sendPlayer(p, protocol.LookLine(w.vision(p)))

	case protocol.CmdInventory:
		w.sendPlayer(p, protocol.InventoryLine(p.inventory()))

	case protocol.CmdTake:
		w.take(p, cmd.Resource)

	case protocol.CmdDrop:
		w.drop(p, cmd.Resource)

	case protocol.CmdEject:
		w.eject(p)

	case protocol.CmdBroadcast:
		w.broadcast(p, cmd.Text)

	case protocol.CmdIncantation:
		w.beginIncantation(p)

	case protocol.CmdFork:
		w.fork(p)

	case protocol.CmdConnectNbr:
		w.sendPlayer(p, protocol.ConnectNbrLine(p.Team.Available))

	default:
		w.sendPlayer(p, protocol.RespKO)
	}
}

// take moves one unit from the tile to the player. Food converts straight
// into survival ticks; stones go to the pouch.
func (w *World) take(p *Player, r protocol.Resource) {
	if err := w.grid.Take(p.X, p.Y, r); err != nil {
		w.sendPlayer(p, protocol.RespKO)
		return
	}
	if r == protocol.Food {
		p.TTL += rules.FoodTicks
	} else {
		p.Stones[r]++
	}
	w.sendPlayer(p, protocol.RespOK)
	w.gfx(gfxproto.PlayerTakes(p.ID, r))
	w.gfx(gfxproto.PlayerInventory(p.ID, p.X, p.Y, p.inventory()))
	w.broadcastTile(p.X, p.Y)
}

// drop moves one unit from the player to the tile. Dropping food requires at
// least one whole unit of survival ticks and costs exactly that.
func (w *World) drop(p *Player, r protocol.Resource) {
	if r == protocol.Food {
		if p.TTL < rules.FoodTicks {
			w.sendPlayer(p, protocol.RespKO)
			return
		}
		p.TTL -= rules.FoodTicks
	} else {
		if p.Stones[r] < 1 {
			w.sendPlayer(p, protocol.RespKO)
			return
		}
		p.Stones[r]--
	}
	w.grid.Deposit(p.X, p.Y, r, 1)
	w.sendPlayer(p, protocol.RespOK)
	w.gfx(gfxproto.PlayerDrops(p.ID, r))
	w.gfx(gfxproto.PlayerInventory(p.ID, p.X, p.Y, p.inventory()))
	w.broadcastTile(p.X, p.Y)
}

// eject shoves every other occupant of the tile one step in the pusher's
// facing direction. Victims learn the direction the shove came from, in
// their own frame of reference.
func (w *World) eject(p *Player) {
	var pushed []*Player
	for _, id := range w.playerIDs() {
		q := w.players[id]
		if q.ID != p.ID && q.X == p.X && q.Y == p.Y {
			pushed = append(pushed, q)
		}
	}
	if len(pushed) == 0 {
		w.sendPlayer(p, protocol.RespKO)
		return
	}

	dx, dy := p.Dir.Delta()
	for _, q := range pushed {
		q.X, q.Y = w.grid.Wrap(q.X+dx, q.Y+dy)
		w.dropFromIncantations(q)
		w.sendPlayer(q, protocol.EjectLine(ejectBearing(p.Dir, q.Dir)))
		w.gfx(gfxproto.PlayerExpelled(q.ID))
		w.gfx(gfxproto.PlayerPos(q.ID, q.X, q.Y, q.Dir.Wire()))
	}
	w.sendPlayer(p, protocol.RespOK)
}

// ejectBearing gives the sound-direction index (1..8) of the shove's origin
// as the victim perceives it. The push origin is directly behind the
// victim's displacement, so the bearing only depends on the two facings.
func ejectBearing(pusher, victim Direction) int {
	// Quarter turns from the victim's facing to the shove's travel
	// direction, clockwise. The origin is opposite the travel direction;
	// sound indices run counterclockwise from 1 ahead, so the cardinal
	// bearings are 1 ahead, 3 left, 5 behind, 7 right.
	rel := (int(pusher) - int(victim) + 4) % 4
	return ((5-2*rel)%8 + 8) % 8
}

// fork manufactures an egg: one future connection slot for the player's team.
func (w *World) fork(p *Player) {
	egg := int(w.nextEggNum.Add(1))
	p.Team.GrantSlot(egg)
	w.sendPlayer(p, protocol.RespOK)
	w.gfx(gfxproto.PlayerForks(p.ID))
	w.gfx(gfxproto.EggLaid(egg, p.ID, p.X, p.Y))
	w.logEvent(MatchEvent{Tick: w.tick.Load(), Type: "FORK", Player: p.ID, Team: p.Team.Name})
}
