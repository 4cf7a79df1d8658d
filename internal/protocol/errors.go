package protocol

import "errors"

// Error taxonomy shared by the codec, the simulation and the transports.
//
// Protocol and command errors are reported to the offending connection and
// are never fatal. Join errors close the connection after a single reply.
// Invariant violations inside the simulation panic: the process must abort
// rather than keep mutating shared state it no longer trusts.
var (
	// Malformed request line; the connection stays open.
	ErrUnknownCommand = errors.New("unknown command")

	// Command errors: legal syntax, illegal semantics.
	ErrInsufficientResource  = errors.New("insufficient resource")
	ErrQueueFull             = errors.New("command queue full")
	ErrAlreadyMaxLevel       = errors.New("already at max level")
	ErrIncantationInProgress = errors.New("incantation in progress")

	// Join errors.
	ErrNoSuchTeam       = errors.New("no such team")
	ErrNoSlotsAvailable = errors.New("no slots available")

	// Startup configuration errors.
	ErrDuplicateTeam = errors.New("duplicate team")
)
