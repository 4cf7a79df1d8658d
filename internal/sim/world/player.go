package world

import (
	"trantor/internal/protocol"
	"trantor/internal/sim/rules"
)

// Direction is a cardinal orientation. Wire encoding is 1..4 starting north.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) Wire() int { return int(d) + 1 }

func (d Direction) TurnRight() Direction { return (d + 1) % 4 }
func (d Direction) TurnLeft() Direction  { return (d + 3) % 4 }

// Delta is the unit step for the direction. North increases y.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	default:
		return -1, 0
	}
}

type pendingCommand struct {
	cmd protocol.Command
	// First tick at which the command may execute: enqueue tick plus the
	// command kind's fixed cost. FIFO order still gates execution.
	eligibleAt uint64
}

// Player is the per-connection actor. It is owned exclusively by the world
// loop goroutine; the transport only ever reads from out.
type Player struct {
	ID   int
	Team *Team

	X, Y  int
	Dir   Direction
	Level int

	// Survival ticks remaining. One food unit is rules.FoodTicks; the
	// inventory view derives units from this.
	TTL int

	// Stone counts. The Food entry is unused (TTL is authoritative).
	Stones [protocol.ResourceCount]int

	Alive bool

	// Frozen while a ritual the player belongs to is pending: the queue
	// does not advance until it settles.
	incanting bool

	queue []pendingCommand
	out   chan []byte
}

func (p *Player) inventory() [protocol.ResourceCount]int {
	inv := p.Stones
	inv[protocol.Food] = p.TTL / rules.FoodTicks
	return inv
}

// enqueue appends a command, returning false when the queue bound is hit.
func (p *Player) enqueue(cmd protocol.Command, now uint64, depth int) bool {
	if len(p.queue) >= depth {
		return false
	}
	p.queue = append(p.queue, pendingCommand{cmd: cmd, eligibleAt: now + rules.Cost(cmd.Kind)})
	return true
}

// due pops the head command if its eligibility tick has arrived. At most one
// command per player is popped per tick, preserving submission order.
func (p *Player) due(now uint64) (protocol.Command, bool) {
	if len(p.queue) == 0 || p.queue[0].eligibleAt > now {
		return protocol.Command{}, false
	}
	cmd := p.queue[0].cmd
	p.queue = p.queue[1:]
	return cmd, true
}

// front returns the tile coordinates one step ahead, wrapped.
func (p *Player) front(g *Grid) (int, int) {
	dx, dy := p.Dir.Delta()
	return g.Wrap(p.X+dx, p.Y+dy)
}
