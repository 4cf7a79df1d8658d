package gfxproto

import (
	"fmt"
	"strings"

	"trantor/internal/protocol"
)

// Encoders for the server->observer delta lines. Orientation is encoded
// 1..4 (north, east, south, west); players and eggs are "#<id>".

func MapSize(w, h int) string { return fmt.Sprintf("msz %d %d", w, h) }

func TimeUnit(freq float64) string { return fmt.Sprintf("sgt %g", freq) }

func TimeUnitChanged(freq float64) string { return fmt.Sprintf("sst %g", freq) }

func Tile(x, y int, counts [protocol.ResourceCount]int) string {
	return fmt.Sprintf("bct %d %d %d %d %d %d %d %d %d",
		x, y,
		counts[protocol.Food], counts[protocol.Linemate], counts[protocol.Deraumere],
		counts[protocol.Sibur], counts[protocol.Mendiane], counts[protocol.Phiras],
		counts[protocol.Thystame])
}

func TeamName(name string) string { return "tna " + name }

func PlayerNew(id, x, y, orientation, level int, team string) string {
	return fmt.Sprintf("pnw #%d %d %d %d %d %s", id, x, y, orientation, level, team)
}

func PlayerPos(id, x, y, orientation int) string {
	return fmt.Sprintf("ppo #%d %d %d %d", id, x, y, orientation)
}

func PlayerLevel(id, level int) string { return fmt.Sprintf("plv #%d %d", id, level) }

func PlayerInventory(id, x, y int, counts [protocol.ResourceCount]int) string {
	return fmt.Sprintf("pin #%d %d %d %d %d %d %d %d %d %d",
		id, x, y,
		counts[protocol.Food], counts[protocol.Linemate], counts[protocol.Deraumere],
		counts[protocol.Sibur], counts[protocol.Mendiane], counts[protocol.Phiras],
		counts[protocol.Thystame])
}

func PlayerExpelled(id int) string { return fmt.Sprintf("pex #%d", id) }

func PlayerBroadcast(id int, text string) string { return fmt.Sprintf("pbc #%d %s", id, text) }

func IncantationStart(x, y, level int, players []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pic %d %d %d", x, y, level)
	for _, id := range players {
		fmt.Fprintf(&b, " #%d", id)
	}
	return b.String()
}

func IncantationEnd(x, y int, ok bool) string {
	r := 0
	if ok {
		r = 1
	}
	return fmt.Sprintf("pie %d %d %d", x, y, r)
}

func PlayerForks(id int) string { return fmt.Sprintf("pfk #%d", id) }

func PlayerDrops(id int, r protocol.Resource) string { return fmt.Sprintf("pdr #%d %d", id, int(r)) }

func PlayerTakes(id int, r protocol.Resource) string { return fmt.Sprintf("pgt #%d %d", id, int(r)) }

func PlayerDied(id int) string { return fmt.Sprintf("pdi #%d", id) }

func EggLaid(egg, player, x, y int) string { return fmt.Sprintf("enw #%d #%d %d %d", egg, player, x, y) }

func EggHatched(egg int) string { return fmt.Sprintf("ebo #%d", egg) }

func EggDied(egg int) string { return fmt.Sprintf("edi #%d", egg) }

func GameOver(team string) string { return "seg " + team }

func ServerMessage(text string) string { return "smg " + text }
