package gfxproto

import (
	"testing"

	"trantor/internal/protocol"
)

func TestParseRequest(t *testing.T) {
	cases := []struct {
		line string
		want Request
	}{
		{"msz", Request{Kind: ReqMapSize}},
		{"mct", Request{Kind: ReqMap}},
		{"tna", Request{Kind: ReqTeamNames}},
		{"sgt", Request{Kind: ReqTimeUnit}},
		{"bct 3 7", Request{Kind: ReqTile, X: 3, Y: 7}},
		{"ppo #12", Request{Kind: ReqPlayerPos, Player: 12}},
		{"plv 12", Request{Kind: ReqPlayerLevel, Player: 12}},
		{"pin #5", Request{Kind: ReqPlayerInv, Player: 5}},
		{"sst 25", Request{Kind: ReqSetTimeUnit, TimeUnit: 25}},
	}
	for _, c := range cases {
		got, err := ParseRequest(c.line)
		if err != nil {
			t.Fatalf("%q: %v", c.line, err)
		}
		if got != c.want {
			t.Fatalf("%q: got %+v, want %+v", c.line, got, c.want)
		}
	}
}

func TestParseRequestErrors(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"bct x 2", "can't parse X"},
		{"bct 1", "missing X or Y"},
		{"bct 1 2 3", "too many arguments"},
		{"msz 1", "too many arguments"},
		{"ppo #a", "can't parse player id"},
		{"sst -1", "invalid time unit"},
		{"nope", "unknown command"},
	}
	for _, c := range cases {
		_, err := ParseRequest(c.line)
		if err == nil || err.Error() != c.want {
			t.Fatalf("%q: got %v, want %q", c.line, err, c.want)
		}
		if got := ErrorLine(err); got != "error: "+c.want {
			t.Fatalf("%q: error line %q", c.line, got)
		}
	}
}

func TestEventEncoding(t *testing.T) {
	var counts [protocol.ResourceCount]int
	counts[protocol.Food] = 2
	counts[protocol.Phiras] = 1

	cases := []struct{ got, want string }{
		{MapSize(32, 16), "msz 32 16"},
		{Tile(3, 7, counts), "bct 3 7 2 0 0 0 0 1 0"},
		{TeamName("Blue"), "tna Blue"},
		{PlayerNew(4, 1, 2, 1, 3, "Blue"), "pnw #4 1 2 1 3 Blue"},
		{PlayerPos(4, 1, 2, 3), "ppo #4 1 2 3"},
		{PlayerLevel(4, 2), "plv #4 2"},
		{PlayerExpelled(9), "pex #9"},
		{PlayerBroadcast(9, "hello"), "pbc #9 hello"},
		{IncantationStart(5, 5, 1, []int{1, 2}), "pic 5 5 1 #1 #2"},
		{IncantationEnd(5, 5, true), "pie 5 5 1"},
		{IncantationEnd(5, 5, false), "pie 5 5 0"},
		{PlayerForks(4), "pfk #4"},
		{PlayerDied(4), "pdi #4"},
		{EggLaid(2, 4, 5, 6), "enw #2 #4 5 6"},
		{EggHatched(2), "ebo #2"},
		{GameOver("Blue"), "seg Blue"},
		{TimeUnit(100), "sgt 100"},
		{TimeUnitChanged(12.5), "sst 12.5"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("got %q, want %q", c.got, c.want)
		}
	}
}
