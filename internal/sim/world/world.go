package world

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"trantor/internal/gfxproto"
	"trantor/internal/protocol"
	"trantor/internal/sim/rules"
)

type Config struct {
	Width, Height int
	Teams         []string
	SlotsPerTeam  int
	// Ticks simulated per second. Higher means faster perceived time:
	// command costs are fixed tick counts.
	Frequency float64
	Seed      int64

	// Operational bounds; zero values take tuning defaults.
	QueueDepth     int
	SpawnCap       int
	OutboundBuffer int
}

func (c *Config) normalize() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("world dimensions must be positive: %dx%d", c.Width, c.Height)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive: %g", c.Frequency)
	}
	if len(c.Teams) == 0 {
		return fmt.Errorf("at least one team is required")
	}
	if c.SlotsPerTeam < 1 {
		return fmt.Errorf("slots per team must be positive: %d", c.SlotsPerTeam)
	}
	for _, name := range c.Teams {
		if name == protocol.GraphicTeam {
			return fmt.Errorf("team name %q is reserved", name)
		}
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = rules.QueueDepth
	}
	if c.SpawnCap <= 0 {
		c.SpawnCap = rules.RegulatorSpawnCap
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = 128
	}
	return nil
}

// JoinRequest asks the world to admit a player to a team. Out receives the
// player's result and event lines for the connection's lifetime.
type JoinRequest struct {
	Team string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	PlayerID int
	Slots    int
	Width    int
	Height   int
	Err      error
}

// CommandEnvelope is one decoded player command heading for its queue.
type CommandEnvelope struct {
	PlayerID int
	Cmd      protocol.Command
}

type ObserverJoinRequest struct {
	Out  chan []byte
	Resp chan int // observer id
}

type ObserverEnvelope struct {
	ObserverID int
	Req        gfxproto.Request
}

type observerState struct {
	out chan []byte
}

// MatchEvent is one telemetry record. It is write-only: nothing in the
// simulation ever reads these back.
type MatchEvent struct {
	Tick   uint64 `json:"tick"`
	Type   string `json:"type"`
	Player int    `json:"player,omitempty"`
	Team   string `json:"team,omitempty"`
	Level  int    `json:"level,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type EventLogger interface {
	WriteEvent(MatchEvent) error
}

// World is the single-threaded authoritative simulation. All state is owned
// by the loop goroutine; connections talk to it exclusively through the
// channels below and their outbound line buffers.
type World struct {
	cfg Config

	tick atomic.Uint64
	freq float64

	grid  *Grid
	teams *Teams
	rng   *rand.Rand

	players   map[int]*Player
	observers map[int]*observerState
	incants   map[[2]int]*incantation

	nextPlayerNum   atomic.Uint64
	nextObserverNum atomic.Uint64
	nextEggNum      atomic.Uint64

	join    chan JoinRequest
	leave   chan int
	inbox   chan CommandEnvelope
	obsJoin chan ObserverJoinRequest
	obsGone chan int
	obsReq  chan ObserverEnvelope
	stop    chan struct{}

	// Optional telemetry sink (may be nil).
	events EventLogger

	winner string

	playerCount   atomic.Int64
	observerCount atomic.Int64
	stepMicros    atomic.Int64
}

func New(cfg Config) (*World, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	teams := NewTeams()
	for _, name := range cfg.Teams {
		if err := teams.Register(name, cfg.SlotsPerTeam); err != nil {
			return nil, err
		}
	}

	w := &World{
		cfg:       cfg,
		freq:      cfg.Frequency,
		grid:      NewGrid(cfg.Width, cfg.Height),
		teams:     teams,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		players:   map[int]*Player{},
		observers: map[int]*observerState{},
		incants:   map[[2]int]*incantation{},
		join:      make(chan JoinRequest, 64),
		leave:     make(chan int, 64),
		inbox:     make(chan CommandEnvelope, 1024),
		obsJoin:   make(chan ObserverJoinRequest, 16),
		obsGone:   make(chan int, 16),
		obsReq:    make(chan ObserverEnvelope, 256),
		stop:      make(chan struct{}),
	}
	return w, nil
}

func (w *World) SetEventLogger(l EventLogger) { w.events = l }

func (w *World) Join() chan<- JoinRequest { return w.join }
func (w *World) Leave() chan<- int { return w.leave }
func (w *World) Inbox() chan<- CommandEnvelope { return w.inbox }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.obsJoin }
func (w *World) ObserverLeave() chan<- int { return w.obsGone }
func (w *World) ObserverInbox() chan<- ObserverEnvelope { return w.obsReq }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Config() Config { return w.cfg }

// Run drives the simulation until ctx is done or Stop is called. Joins,
// leaves and decoded commands are applied as they arrive; all simulation
// mutation happens inside step, one tick at a time, never concurrently.
func (w *World) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / w.freq)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			w.handleLeave(id)
		case env := <-w.inbox:
			w.handleCommand(env)
		case req := <-w.obsJoin:
			w.handleObserverJoin(req)
		case id := <-w.obsGone:
			w.handleObserverLeave(id)
		case env := <-w.obsReq:
			if newFreq, changed := w.handleObserverRequest(env); changed {
				ticker.Reset(time.Duration(float64(time.Second) / newFreq))
			}
		case <-ticker.C:
			start := time.Now()
			w.step()
			w.stepMicros.Store(time.Since(start).Microseconds())
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world a single tick with the same semantics as the
// running loop. Intended for tests.
func (w *World) StepOnce() uint64 {
	t := w.tick.Load()
	w.step()
	return t
}

func (w *World) handleJoin(req JoinRequest) {
	team, egg, err := w.teams.TryJoin(req.Team)
	if err != nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{Err: err}
		}
		return
	}

	id := int(w.nextPlayerNum.Add(1))
	p := &Player{
		ID:    id,
		Team:  team,
		X:     w.rng.Intn(w.grid.W),
		Y:     w.rng.Intn(w.grid.H),
		Dir:   Direction(w.rng.Intn(4)),
		Level: 1,
		TTL:   rules.InitialTicks,
		Alive: true,
		out:   req.Out,
	}
	w.players[id] = p
	w.playerCount.Store(int64(len(w.players)))

	if egg >= 0 {
		w.gfx(gfxproto.EggHatched(egg))
	}
	w.gfx(gfxproto.PlayerNew(p.ID, p.X, p.Y, p.Dir.Wire(), p.Level, team.Name))
	w.logEvent(MatchEvent{Tick: w.tick.Load(), Type: "JOIN", Player: id, Team: team.Name})

	if req.Resp != nil {
		req.Resp <- JoinResponse{
			PlayerID: id,
			Slots:    team.Available,
			Width:    w.grid.W,
			Height:   w.grid.H,
		}
	}
}

// handleLeave tears down a player whose connection dropped. Unexecuted
// commands are discarded, the slot is returned, observers are told.
func (w *World) handleLeave(id int) {
	p := w.players[id]
	if p == nil {
		return
	}
	w.removePlayer(p, "DISCONNECT")
}

func (w *World) handleCommand(env CommandEnvelope) {
	p := w.players[env.PlayerID]
	if p == nil {
		return
	}
	switch env.Cmd.Kind {
	case protocol.CmdInvalid:
		w.sendPlayer(p, protocol.RespKO)
		return
	case protocol.CmdQuit:
		w.removePlayer(p, "QUIT")
		return
	}
	// Queue bound enforced immediately, independent of tick timing.
	if !p.enqueue(env.Cmd, w.tick.Load(), w.cfg.QueueDepth) {
		w.sendPlayer(p, protocol.RespKO)
	}
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	id := int(w.nextObserverNum.Add(1))
	w.observers[id] = &observerState{out: req.Out}
	w.observerCount.Store(int64(len(w.observers)))

	// Initial state dump: dimensions, time unit, rosters, the full map and
	// every live player.
	lines := []string{
		gfxproto.MapSize(w.grid.W, w.grid.H),
		gfxproto.TimeUnit(w.freq),
	}
	for _, name := range w.teams.Names() {
		lines = append(lines, gfxproto.TeamName(name))
	}
	for y := 0; y < w.grid.H; y++ {
		for x := 0; x < w.grid.W; x++ {
			lines = append(lines, gfxproto.Tile(x, y, w.grid.At(x, y).Counts))
		}
	}
	for _, id := range w.playerIDs() {
		p := w.players[id]
		lines = append(lines,
			gfxproto.PlayerNew(p.ID, p.X, p.Y, p.Dir.Wire(), p.Level, p.Team.Name),
			gfxproto.PlayerInventory(p.ID, p.X, p.Y, p.inventory()),
		)
	}
	w.sendObserver(w.observers[id], lines...)

	if req.Resp != nil {
		req.Resp <- id
	}
}

func (w *World) handleObserverLeave(id int) {
	if o := w.observers[id]; o != nil {
		delete(w.observers, id)
		w.observerCount.Store(int64(len(w.observers)))
		if o.out != nil {
			close(o.out)
		}
	}
}

// handleObserverRequest answers one read-only observer request. The returned
// flag reports a frequency change so the loop can retime its ticker.
func (w *World) handleObserverRequest(env ObserverEnvelope) (float64, bool) {
	o := w.observers[env.ObserverID]
	if o == nil {
		return 0, false
	}
	req := env.Req

	switch req.Kind {
	case gfxproto.ReqInvalid:
		w.sendObserver(o, gfxproto.ErrorLine(fmt.Errorf("%s", req.Err)))
	case gfxproto.ReqMapSize:
		w.sendObserver(o, gfxproto.MapSize(w.grid.W, w.grid.H))
	case gfxproto.ReqTimeUnit:
		w.sendObserver(o, gfxproto.TimeUnit(w.freq))
	case gfxproto.ReqSetTimeUnit:
		w.freq = req.TimeUnit
		w.gfx(gfxproto.TimeUnitChanged(w.freq))
		return w.freq, true
	case gfxproto.ReqTeamNames:
		for _, name := range w.teams.Names() {
			w.sendObserver(o, gfxproto.TeamName(name))
		}
	case gfxproto.ReqTile:
		if req.X < 0 || req.X >= w.grid.W || req.Y < 0 || req.Y >= w.grid.H {
			w.sendObserver(o, gfxproto.ErrorLine(fmt.Errorf("coordinates out of bounds")))
			return 0, false
		}
		w.sendObserver(o, gfxproto.Tile(req.X, req.Y, w.grid.At(req.X, req.Y).Counts))
	case gfxproto.ReqMap:
		lines := make([]string, 0, w.grid.Area())
		for y := 0; y < w.grid.H; y++ {
			for x := 0; x < w.grid.W; x++ {
				lines = append(lines, gfxproto.Tile(x, y, w.grid.At(x, y).Counts))
			}
		}
		w.sendObserver(o, lines...)
	case gfxproto.ReqPlayerPos:
		if p := w.players[req.Player]; p != nil {
			w.sendObserver(o, gfxproto.PlayerPos(p.ID, p.X, p.Y, p.Dir.Wire()))
		} else {
			w.sendObserver(o, gfxproto.ErrorLine(fmt.Errorf("player not found")))
		}
	case gfxproto.ReqPlayerLevel:
		if p := w.players[req.Player]; p != nil {
			w.sendObserver(o, gfxproto.PlayerLevel(p.ID, p.Level))
		} else {
			w.sendObserver(o, gfxproto.ErrorLine(fmt.Errorf("player not found")))
		}
	case gfxproto.ReqPlayerInv:
		if p := w.players[req.Player]; p != nil {
			w.sendObserver(o, gfxproto.PlayerInventory(p.ID, p.X, p.Y, p.inventory()))
		} else {
			w.sendObserver(o, gfxproto.ErrorLine(fmt.Errorf("player not found")))
		}
	}
	return 0, false
}

// removePlayer is the single teardown path: death, disconnect and quit all
// land here. reason feeds telemetry only.
func (w *World) removePlayer(p *Player, reason string) {
	delete(w.players, p.ID)
	w.playerCount.Store(int64(len(w.players)))
	p.Alive = false
	p.queue = nil
	p.Team.ReleaseSlot()
	w.dropFromIncantations(p)

	if reason == "DEATH" {
		w.sendPlayer(p, protocol.RespDead)
	}
	w.closePlayer(p)
	w.gfx(gfxproto.PlayerDied(p.ID))
	w.logEvent(MatchEvent{Tick: w.tick.Load(), Type: reason, Player: p.ID, Team: p.Team.Name, Level: p.Level})
}

// playerIDs returns live player ids in ascending order so per-tick dispatch
// is deterministic.
func (w *World) playerIDs() []int {
	ids := make([]int, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (w *World) sendPlayer(p *Player, line string) {
	if p.out == nil {
		return
	}
	select {
	case p.out <- []byte(line + "\n"):
	default:
		// Slow consumer: sever rather than stall the tick. The transport
		// notices the closed channel and finishes teardown via Leave.
		close(p.out)
		p.out = nil
	}
}

func (w *World) closePlayer(p *Player) {
	if p.out != nil {
		close(p.out)
		p.out = nil
	}
}

// gfx fans a delta line out to every observer.
func (w *World) gfx(line string) {
	for _, o := range w.observers {
		w.sendObserver(o, line)
	}
}

func (w *World) sendObserver(o *observerState, lines ...string) {
	if o.out == nil {
		return
	}
	buf := make([]byte, 0, 16*len(lines))
	for _, l := range lines {
		buf = append(buf, l...)
		buf = append(buf, '\n')
	}
	select {
	case o.out <- buf:
	default:
		close(o.out)
		o.out = nil
	}
}

func (w *World) logEvent(e MatchEvent) {
	if w.events != nil {
		_ = w.events.WriteEvent(e)
	}
}

type Metrics struct {
	Tick      uint64  `json:"tick"`
	Players   int64   `json:"players"`
	Observers int64   `json:"observers"`
	StepMS    float64 `json:"step_ms"`
}

func (w *World) Metrics() Metrics {
	return Metrics{
		Tick:      w.tick.Load(),
		Players:   w.playerCount.Load(),
		Observers: w.observerCount.Load(),
		StepMS:    float64(w.stepMicros.Load()) / 1000,
	}
}
