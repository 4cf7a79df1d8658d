package world

import (
	"errors"
	"strings"
	"testing"

	"trantor/internal/protocol"
	"trantor/internal/sim/rules"
)

func newTestWorld(t *testing.T, width, height int, teams []string, slots int) *World {
	t.Helper()
	w, err := New(Config{
		Width:        width,
		Height:       height,
		Teams:        teams,
		SlotsPerTeam: slots,
		Frequency:    100,
		Seed:         1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Keep tile contents under test control.
	w.cfg.SpawnCap = 0
	return w
}

func joinPlayer(t *testing.T, w *World, team string) (*Player, chan []byte) {
	t.Helper()
	out := make(chan []byte, 256)
	resp := make(chan JoinResponse, 1)
	w.handleJoin(JoinRequest{Team: team, Out: out, Resp: resp})
	r := <-resp
	if r.Err != nil {
		t.Fatalf("join %s: %v", team, r.Err)
	}
	return w.players[r.PlayerID], out
}

func drainLines(out chan []byte) []string {
	var lines []string
	for {
		select {
		case b, ok := <-out:
			if !ok {
				return lines
			}
			for _, l := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
				lines = append(lines, l)
			}
		default:
			return lines
		}
	}
}

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.StepOnce()
	}
}

func TestCommandEligibilityDelay(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	p.X, p.Y, p.Dir = 0, 0, North
	drainLines(out)

	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdForward}})

	stepN(w, 6)
	if lines := drainLines(out); len(lines) != 0 {
		t.Fatalf("reply before eligibility tick: %v", lines)
	}
	w.StepOnce()
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "ok" {
		t.Fatalf("want [ok], got %v", lines)
	}
	if p.X != 0 || p.Y != 1 {
		t.Fatalf("want (0,1), got (%d,%d)", p.X, p.Y)
	}
}

func TestCommandsExecuteInSubmissionOrder(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	drainLines(out)

	// The cheap inventory query (cost 1) is enqueued after a turn (cost 7)
	// and must not overtake it.
	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdTurnRight}})
	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdInventory}})

	stepN(w, 7)
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "ok" {
		t.Fatalf("tick 7: want [ok], got %v", lines)
	}
	w.StepOnce()
	lines = drainLines(out)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "{nourriture") {
		t.Fatalf("tick 8: want inventory line, got %v", lines)
	}
}

func TestQueueBoundRejectsImmediately(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	drainLines(out)

	for i := 0; i < rules.QueueDepth; i++ {
		w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdForward}})
	}
	if lines := drainLines(out); len(lines) != 0 {
		t.Fatalf("unexpected replies while filling queue: %v", lines)
	}

	// Overflow is answered without waiting for any tick.
	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdForward}})
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "ko" {
		t.Fatalf("want immediate [ko], got %v", lines)
	}
	if len(p.queue) != rules.QueueDepth {
		t.Fatalf("queue grew past bound: %d", len(p.queue))
	}
}

func TestUnknownCommandDoesNotConsumeQueueSlot(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	drainLines(out)

	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{}})
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "ko" {
		t.Fatalf("want [ko], got %v", lines)
	}
	if len(p.queue) != 0 {
		t.Fatalf("invalid command entered the queue")
	}
}

func TestStarvationKillsExactlyOnce(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 2)
	p, out := joinPlayer(t, w, "A")
	drainLines(out)
	team := w.teams.Get("A")
	availBefore := team.Available

	p.TTL = 1
	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdInventory}})
	w.StepOnce()

	lines := drainLines(out)
	if len(lines) == 0 || lines[len(lines)-1] != "mort" {
		t.Fatalf("want final line mort, got %v", lines)
	}
	if _, ok := w.players[p.ID]; ok {
		t.Fatalf("dead player still registered")
	}
	if team.Available != availBefore+1 {
		t.Fatalf("slot not returned: %d -> %d", availBefore, team.Available)
	}

	// No further commands execute for the dead player.
	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdForward}})
	stepN(w, 10)
	if p.Alive {
		t.Fatalf("player resurrected")
	}
}

func TestTakeAndDropFoodConvertSurvivalTicks(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	p.X, p.Y = 3, 3
	drainLines(out)

	w.grid.Deposit(3, 3, protocol.Food, 1)
	ttl := p.TTL
	w.take(p, protocol.Food)
	if p.TTL != ttl+rules.FoodTicks {
		t.Fatalf("take food: ttl %d, want %d", p.TTL, ttl+rules.FoodTicks)
	}
	if w.grid.At(3, 3).Counts[protocol.Food] != 0 {
		t.Fatalf("tile food not debited")
	}

	w.drop(p, protocol.Food)
	if p.TTL != ttl {
		t.Fatalf("drop food: ttl %d, want %d", p.TTL, ttl)
	}
	if w.grid.At(3, 3).Counts[protocol.Food] != 1 {
		t.Fatalf("tile food not credited")
	}
}

func TestTakeEmptyTileFails(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	p.X, p.Y = 0, 0
	drainLines(out)

	w.take(p, protocol.Linemate)
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "ko" {
		t.Fatalf("want [ko], got %v", lines)
	}
	if w.grid.At(0, 0).Counts[protocol.Linemate] != 0 {
		t.Fatalf("count went negative")
	}
}

func TestEjectPushesOccupants(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 2)
	p, pout := joinPlayer(t, w, "A")
	q, qout := joinPlayer(t, w, "A")
	p.X, p.Y, p.Dir = 5, 5, East
	q.X, q.Y, q.Dir = 5, 5, North
	drainLines(pout)
	drainLines(qout)

	w.eject(p)

	if q.X != 6 || q.Y != 5 {
		t.Fatalf("victim at (%d,%d), want (6,5)", q.X, q.Y)
	}
	plines := drainLines(pout)
	if len(plines) != 1 || plines[0] != "ok" {
		t.Fatalf("pusher: want [ok], got %v", plines)
	}
	qlines := drainLines(qout)
	// Shoved eastward while facing north: the shove came from the west,
	// the victim's left.
	if len(qlines) != 1 || qlines[0] != "deplacement 3" {
		t.Fatalf("victim: want [deplacement 3], got %v", qlines)
	}
}

func TestEjectWithNoOneFails(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	drainLines(out)

	w.eject(p)
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "ko" {
		t.Fatalf("want [ko], got %v", lines)
	}
}

func TestJoinRejectionsLeaveStateUntouched(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	joinPlayer(t, w, "A")

	resp := make(chan JoinResponse, 1)
	w.handleJoin(JoinRequest{Team: "A", Out: make(chan []byte, 1), Resp: resp})
	if r := <-resp; !errors.Is(r.Err, protocol.ErrNoSlotsAvailable) {
		t.Fatalf("want ErrNoSlotsAvailable, got %v", r.Err)
	}
	if w.teams.Get("A").Available != 0 {
		t.Fatalf("failed join mutated slot count")
	}

	w.handleJoin(JoinRequest{Team: "Z", Out: make(chan []byte, 1), Resp: resp})
	if r := <-resp; !errors.Is(r.Err, protocol.ErrNoSuchTeam) {
		t.Fatalf("want ErrNoSuchTeam, got %v", r.Err)
	}
	if len(w.players) != 1 {
		t.Fatalf("phantom player created")
	}
}

func TestForkGrantsJoinableSlot(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, out := joinPlayer(t, w, "A")
	drainLines(out)

	w.fork(p)
	if lines := drainLines(out); len(lines) != 1 || lines[0] != "ok" {
		t.Fatalf("want [ok], got %v", lines)
	}

	q, _ := joinPlayer(t, w, "A")
	if q.Team.Name != "A" {
		t.Fatalf("forked slot not joinable")
	}
	if q.Team.Available != 0 || q.Team.Capacity != 2 {
		t.Fatalf("slot accounting after fork+join: avail=%d cap=%d", q.Team.Available, q.Team.Capacity)
	}
}

func TestConnectNbrReportsAvailableSlots(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 3)
	p, out := joinPlayer(t, w, "A")
	drainLines(out)

	w.handleCommand(CommandEnvelope{PlayerID: p.ID, Cmd: protocol.Command{Kind: protocol.CmdConnectNbr}})
	w.StepOnce()
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "2" {
		t.Fatalf("want [2], got %v", lines)
	}
}
