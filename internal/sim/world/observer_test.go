package world

import (
	"strings"
	"testing"

	"trantor/internal/gfxproto"
	"trantor/internal/protocol"
)

func joinObserver(t *testing.T, w *World) (int, chan []byte) {
	t.Helper()
	out := make(chan []byte, 4096)
	resp := make(chan int, 1)
	w.handleObserverJoin(ObserverJoinRequest{Out: out, Resp: resp})
	return <-resp, out
}

func TestObserverJoinSnapshot(t *testing.T) {
	w := newTestWorld(t, 4, 3, []string{"Blue", "Red"}, 1)
	p, pout := joinPlayer(t, w, "Blue")
	drainLines(pout)

	_, out := joinObserver(t, w)
	lines := drainLines(out)

	if lines[0] != "msz 4 3" {
		t.Fatalf("first line %q, want map size", lines[0])
	}
	if !strings.HasPrefix(lines[1], "sgt ") {
		t.Fatalf("second line %q, want time unit", lines[1])
	}
	var tna, bct, pnw int
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "tna "):
			tna++
		case strings.HasPrefix(l, "bct "):
			bct++
		case strings.HasPrefix(l, "pnw "):
			pnw++
		}
	}
	if tna != 2 {
		t.Fatalf("%d team lines, want 2", tna)
	}
	if bct != 12 {
		t.Fatalf("%d tile lines, want 12", bct)
	}
	if pnw != 1 {
		t.Fatalf("%d player lines, want 1", pnw)
	}
	_ = p
}

func TestObserverSeesGameplayDeltas(t *testing.T) {
	w := newTestWorld(t, 10, 10, []string{"A"}, 1)
	p, pout := joinPlayer(t, w, "A")
	p.X, p.Y, p.Dir = 2, 2, East
	drainLines(pout)

	_, out := joinObserver(t, w)
	drainLines(out)

	w.execute(p, protocol.Command{Kind: protocol.CmdForward})
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "ppo #1 3 2 2" {
		t.Fatalf("got %v, want position delta", lines)
	}
}

func TestObserverRequests(t *testing.T) {
	w := newTestWorld(t, 5, 5, []string{"A"}, 1)
	p, pout := joinPlayer(t, w, "A")
	p.X, p.Y = 1, 1
	drainLines(pout)
	id, out := joinObserver(t, w)
	drainLines(out)

	ask := func(line string) []string {
		t.Helper()
		req, err := gfxproto.ParseRequest(line)
		if err != nil {
			req = gfxproto.Invalid(err)
		}
		w.handleObserverRequest(ObserverEnvelope{ObserverID: id, Req: req})
		return drainLines(out)
	}

	if got := ask("msz"); len(got) != 1 || got[0] != "msz 5 5" {
		t.Fatalf("msz: %v", got)
	}
	if got := ask("bct 9 0"); len(got) != 1 || got[0] != "error: coordinates out of bounds" {
		t.Fatalf("bct oob: %v", got)
	}
	if got := ask("mct"); len(got) != 25 {
		t.Fatalf("mct: %d lines, want 25", len(got))
	}
	if got := ask("plv #1"); len(got) != 1 || got[0] != "plv #1 1" {
		t.Fatalf("plv: %v", got)
	}
	if got := ask("ppo #99"); len(got) != 1 || got[0] != "error: player not found" {
		t.Fatalf("ppo missing: %v", got)
	}
	if got := ask("gibberish"); len(got) != 1 || got[0] != "error: unknown command" {
		t.Fatalf("gibberish: %v", got)
	}
}

func TestSetTimeUnitRetunes(t *testing.T) {
	w := newTestWorld(t, 5, 5, []string{"A"}, 1)
	id, out := joinObserver(t, w)
	drainLines(out)

	req, err := gfxproto.ParseRequest("sst 42")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	freq, changed := w.handleObserverRequest(ObserverEnvelope{ObserverID: id, Req: req})
	if !changed || freq != 42 {
		t.Fatalf("changed=%v freq=%g", changed, freq)
	}
	lines := drainLines(out)
	if len(lines) != 1 || lines[0] != "sst 42" {
		t.Fatalf("got %v", lines)
	}
}

func TestSlowObserverIsSevered(t *testing.T) {
	w := newTestWorld(t, 5, 5, []string{"A"}, 1)
	out := make(chan []byte) // unbuffered: any delta overflows
	resp := make(chan int, 1)
	w.handleObserverJoin(ObserverJoinRequest{Out: out, Resp: resp})
	id := <-resp

	if w.observers[id].out != nil {
		t.Fatalf("snapshot did not overflow the zero buffer")
	}
	// Severed channel is closed so the transport can notice.
	if _, ok := <-out; ok {
		t.Fatalf("out channel not closed")
	}
}
