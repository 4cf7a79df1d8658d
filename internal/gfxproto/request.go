// Package gfxproto is the observer ("GRAPHIC") wire vocabulary: read-only
// requests observers may send, and the state-delta lines the server pushes.
// It is disjoint from the player vocabulary in internal/protocol.
package gfxproto

import (
	"fmt"
	"strconv"
	"strings"
)

type RequestKind int

const (
	// ReqInvalid carries an unparseable line's error text so the reply can
	// be sequenced with the rest of the observer's output.
	ReqInvalid RequestKind = iota
	ReqMapSize                    // msz
	ReqTile                       // bct X Y
	ReqMap                        // mct
	ReqTeamNames                  // tna
	ReqPlayerPos                  // ppo #n
	ReqPlayerLevel                // plv #n
	ReqPlayerInv                  // pin #n
	ReqTimeUnit                   // sgt
	ReqSetTimeUnit                // sst T
)

type Request struct {
	Kind     RequestKind
	X, Y     int
	Player   int
	TimeUnit float64

	// Parse failure text for ReqInvalid.
	Err string
}

// Invalid wraps a parse failure as a routable request.
func Invalid(err error) Request { return Request{Kind: ReqInvalid, Err: err.Error()} }

// ParseRequest decodes one observer line. The returned error text is sent
// back verbatim on an "error: ..." line.
func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, fmt.Errorf("empty request")
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "msz":
		return noArgs(ReqMapSize, args)
	case "mct":
		return noArgs(ReqMap, args)
	case "tna":
		return noArgs(ReqTeamNames, args)
	case "sgt":
		return noArgs(ReqTimeUnit, args)
	case "bct":
		if len(args) < 2 {
			return Request{}, fmt.Errorf("missing X or Y")
		}
		if len(args) > 2 {
			return Request{}, fmt.Errorf("too many arguments")
		}
		x, err := strconv.Atoi(args[0])
		if err != nil {
			return Request{}, fmt.Errorf("can't parse X")
		}
		y, err := strconv.Atoi(args[1])
		if err != nil {
			return Request{}, fmt.Errorf("can't parse Y")
		}
		return Request{Kind: ReqTile, X: x, Y: y}, nil
	case "ppo", "plv", "pin":
		if len(args) != 1 {
			return Request{}, fmt.Errorf("expected exactly one player id")
		}
		id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil {
			return Request{}, fmt.Errorf("can't parse player id")
		}
		k := map[string]RequestKind{"ppo": ReqPlayerPos, "plv": ReqPlayerLevel, "pin": ReqPlayerInv}[name]
		return Request{Kind: k, Player: id}, nil
	case "sst":
		if len(args) != 1 {
			return Request{}, fmt.Errorf("expected exactly one time unit")
		}
		t, err := strconv.ParseFloat(args[0], 64)
		if err != nil || t <= 0 {
			return Request{}, fmt.Errorf("invalid time unit")
		}
		return Request{Kind: ReqSetTimeUnit, TimeUnit: t}, nil
	}
	return Request{}, fmt.Errorf("unknown command")
}

func noArgs(k RequestKind, args []string) (Request, error) {
	if len(args) != 0 {
		return Request{}, fmt.Errorf("too many arguments")
	}
	return Request{Kind: k}, nil
}

// ErrorLine wraps a request failure for the wire.
func ErrorLine(err error) string { return "error: " + err.Error() }
