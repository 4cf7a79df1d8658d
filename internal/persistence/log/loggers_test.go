package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"trantor/internal/sim/world"
)

func TestMatchLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewMatchLogger(dir)

	events := []world.MatchEvent{
		{Tick: 1, Type: "JOIN", Player: 1, Team: "Blue"},
		{Tick: 300, Type: "ELEVATION", Player: 1, Team: "Blue", Level: 2},
		{Tick: 1260, Type: "DEATH", Player: 1, Team: "Blue", Level: 2},
	}
	for _, e := range events {
		if err := l.WriteEvent(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "events", "*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("event files %v, err %v", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []world.MatchEvent
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var e world.MatchEvent
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("%d events, want %d", len(got), len(events))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Fatalf("event %d: got %+v, want %+v", i, got[i], events[i])
		}
	}
}
