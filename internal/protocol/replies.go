package protocol

import (
	"fmt"
	"strings"
)

const (
	// Banner is the first line the server writes on every new connection.
	Banner = "BIENVENUE"

	// GraphicTeam is the reserved handshake name that classifies a
	// connection as a read-only observer instead of a player join.
	GraphicTeam = "GRAPHIC"

	RespOK   = "ok"
	RespKO   = "ko"
	RespDead = "mort"

	RespElevationUnderway = "elevation en cours"
)

// WelcomeLines is the tail of a successful player handshake: the number of
// slots the team still has, then the world dimensions.
func WelcomeLines(slots, width, height int) []string {
	return []string{
		fmt.Sprintf("%d", slots),
		fmt.Sprintf("%d %d", width, height),
	}
}

func CurrentLevelLine(level int) string {
	return fmt.Sprintf("niveau actuel : %d", level)
}

func ConnectNbrLine(n int) string { return fmt.Sprintf("%d", n) }

// InventoryLine renders "{nourriture n, linemate n, ...}" in wire order.
func InventoryLine(counts [ResourceCount]int) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, r := range Resources() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %d", r, counts[r])
	}
	b.WriteByte('}')
	return b.String()
}

// LookLine renders the vision reply: "{tile0, tile1, ...}" where each tile is
// a space-separated list of object words, possibly empty.
func LookLine(tiles [][]string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, objs := range tiles {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strings.Join(objs, " "))
	}
	b.WriteByte('}')
	return b.String()
}

// MessageLine is the asynchronous broadcast delivery line. dir is 0 when the
// sound source shares the receiver's tile, 1..8 otherwise.
func MessageLine(dir int, text string) string {
	return fmt.Sprintf("message %d, %s", dir, text)
}

// EjectLine tells a pushed player which direction the shove came from.
func EjectLine(dir int) string {
	return fmt.Sprintf("deplacement %d", dir)
}
