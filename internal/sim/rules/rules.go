// Package rules holds the fixed gameplay policy: command tick costs, survival
// timing, resource densities and the per-level elevation requirements.
// All durations are tick counts; wall-clock scaling comes solely from the
// configured frequency.
package rules

import "trantor/internal/protocol"

const (
	// Survival ticks granted by one unit of food. A fresh player starts
	// with ten units.
	FoodTicks    = 126
	InitialTicks = 1260

	// Bound on pending commands per connection; overflow is rejected,
	// never queued.
	QueueDepth = 10

	MaxLevel = 8

	// Ticks between an elevation ritual forming and its resolution.
	// Together with the incantation command cost this keeps a full
	// elevation at 300 ticks.
	IncantationResolveTicks = 200

	// Upper bound on units the regulator may spawn in a single tick,
	// across all kinds. Prevents catch-up bursts on starved worlds.
	RegulatorSpawnCap = 64
)

var costs = map[protocol.CommandKind]uint64{
	protocol.CmdForward:     7,
	protocol.CmdTurnLeft:    7,
	protocol.CmdTurnRight:   7,
	protocol.CmdLook:        7,
	protocol.CmdInventory:   1,
	protocol.CmdTake:        7,
	protocol.CmdDrop:        7,
	protocol.CmdEject:       7,
	protocol.CmdBroadcast:   7,
	protocol.CmdIncantation: 100,
	protocol.CmdFork:        42,
	protocol.CmdConnectNbr:  0,
	protocol.CmdQuit:        0,
}

// Cost returns the number of ticks between a command being enqueued and it
// becoming eligible for execution.
func Cost(k protocol.CommandKind) uint64 { return costs[k] }

// Density is the target number of units per tile, per kind. The regulator
// aims each kind's world total at ceil(area * density).
var Density = [protocol.ResourceCount]float64{
	protocol.Food:      0.5,
	protocol.Linemate:  0.3,
	protocol.Deraumere: 0.15,
	protocol.Sibur:     0.1,
	protocol.Mendiane:  0.1,
	protocol.Phiras:    0.08,
	protocol.Thystame:  0.05,
}

// Elevation is the requirement to advance from a level: the number of
// same-level players that must stand on the tile, and the stones the tile
// must hold (consumed on success).
type Elevation struct {
	Players int
	Stones  [protocol.ResourceCount]int
}

var elevations = map[int]Elevation{
	1: {Players: 1, Stones: stones(1, 0, 0, 0, 0, 0)},
	2: {Players: 2, Stones: stones(1, 1, 1, 0, 0, 0)},
	3: {Players: 2, Stones: stones(2, 0, 1, 0, 2, 0)},
	4: {Players: 4, Stones: stones(1, 1, 2, 0, 1, 0)},
	5: {Players: 4, Stones: stones(1, 2, 1, 3, 0, 0)},
	6: {Players: 6, Stones: stones(1, 2, 3, 0, 1, 0)},
	7: {Players: 6, Stones: stones(2, 2, 2, 2, 2, 1)},
}

// Requirement returns the elevation requirement for a player currently at
// level. ok is false at MaxLevel and for out-of-range levels.
func Requirement(level int) (Elevation, bool) {
	e, ok := elevations[level]
	return e, ok
}

func stones(li, de, si, me, ph, th int) [protocol.ResourceCount]int {
	var s [protocol.ResourceCount]int
	s[protocol.Linemate] = li
	s[protocol.Deraumere] = de
	s[protocol.Sibur] = si
	s[protocol.Mendiane] = me
	s[protocol.Phiras] = ph
	s[protocol.Thystame] = th
	return s
}
