package protocol

import "strings"

type CommandKind int

const (
	// CmdInvalid is the zero Command: an unparseable line. It is answered
	// "ko" without ever entering a queue.
	CmdInvalid CommandKind = iota
	CmdForward
	CmdTurnLeft
	CmdTurnRight
	CmdLook
	CmdInventory
	CmdTake
	CmdDrop
	CmdEject
	CmdBroadcast
	CmdIncantation
	CmdFork
	CmdConnectNbr
	CmdQuit
)

var kindNames = map[CommandKind]string{
	CmdForward:     "avance",
	CmdTurnLeft:    "gauche",
	CmdTurnRight:   "droite",
	CmdLook:        "voir",
	CmdInventory:   "inventaire",
	CmdTake:        "prend",
	CmdDrop:        "pose",
	CmdEject:       "expulse",
	CmdBroadcast:   "broadcast",
	CmdIncantation: "incantation",
	CmdFork:        "fork",
	CmdConnectNbr:  "connect_nbr",
	CmdQuit:        "quit",
}

func (k CommandKind) String() string { return kindNames[k] }

// Command is one decoded player request. Resource is meaningful for CmdTake
// and CmdDrop, Text for CmdBroadcast.
type Command struct {
	Kind     CommandKind
	Resource Resource
	Text     string
}

// ParseCommand decodes a newline-stripped request line into a Command.
// Any parse failure is ErrUnknownCommand: the line is reported to the sender
// and has no other effect.
func ParseCommand(line string) (Command, error) {
	name, args, _ := strings.Cut(line, " ")

	switch name {
	case "avance":
		return bare(CmdForward, args)
	case "gauche":
		return bare(CmdTurnLeft, args)
	case "droite":
		return bare(CmdTurnRight, args)
	case "voir":
		return bare(CmdLook, args)
	case "inventaire":
		return bare(CmdInventory, args)
	case "expulse":
		return bare(CmdEject, args)
	case "incantation":
		return bare(CmdIncantation, args)
	case "fork":
		return bare(CmdFork, args)
	case "connect_nbr":
		return bare(CmdConnectNbr, args)
	case "quit":
		return bare(CmdQuit, args)
	case "prend":
		r, ok := ParseResource(strings.TrimSpace(args))
		if !ok {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: CmdTake, Resource: r}, nil
	case "pose":
		r, ok := ParseResource(strings.TrimSpace(args))
		if !ok {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: CmdDrop, Resource: r}, nil
	case "broadcast":
		return Command{Kind: CmdBroadcast, Text: args}, nil
	}
	return Command{}, ErrUnknownCommand
}

func bare(k CommandKind, args string) (Command, error) {
	if strings.TrimSpace(args) != "" {
		return Command{}, ErrUnknownCommand
	}
	return Command{Kind: k}, nil
}
