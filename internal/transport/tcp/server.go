package tcp

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"time"

	"trantor/internal/gfxproto"
	"trantor/internal/protocol"
	"trantor/internal/sim/world"
)

// Server is the line-protocol front door for players and observers. Each
// connection gets a reader loop on its own goroutine plus a writer goroutine
// draining the world-owned outbound buffer.
type Server struct {
	world *world.World
	log   *log.Logger

	// Outbound lines buffered per connection before the world severs it.
	outBuffer int
}

func NewServer(w *world.World, logger *log.Logger, outBuffer int) *Server {
	if outBuffer <= 0 {
		outBuffer = 128
	}
	return &Server{world: w, log: logger, outBuffer: outBuffer}
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Printf("accept: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := writeLine(conn, protocol.Banner); err != nil {
		return
	}

	// The first line names a team, or GRAPHIC for a read-only observer.
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	r := bufio.NewReader(conn)
	name, err := readLine(r)
	if err != nil {
		return
	}

	if name == protocol.GraphicTeam {
		s.observerSession(ctx, conn, r)
		return
	}
	s.playerSession(ctx, conn, r, name)
}

func (s *Server) playerSession(ctx context.Context, conn net.Conn, r *bufio.Reader, team string) {
	out := make(chan []byte, s.outBuffer)
	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{Team: team, Out: out, Resp: respCh}
	resp := <-respCh
	if resp.Err != nil {
		// The slot count still goes out so a full team reads as zero.
		if errors.Is(resp.Err, protocol.ErrNoSlotsAvailable) {
			_ = writeLine(conn, "0")
		} else {
			_ = writeLine(conn, protocol.RespKO)
		}
		return
	}

	for _, line := range protocol.WelcomeLines(resp.Slots, resp.Width, resp.Height) {
		if err := writeLine(conn, line); err != nil {
			s.world.Leave() <- resp.PlayerID
			return
		}
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		writer(connCtx, conn, out)
		cancel()
	}()
	// Unblock the reader when the world severs us or the server stops.
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	for {
		_ = conn.SetReadDeadline(time.Time{})
		line, err := readLine(r)
		if err != nil {
			break
		}
		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			cmd = protocol.Command{} // CmdInvalid; answered ko in order
		}
		select {
		case s.world.Inbox() <- world.CommandEnvelope{PlayerID: resp.PlayerID, Cmd: cmd}:
		case <-connCtx.Done():
			s.world.Leave() <- resp.PlayerID
			return
		}
		if cmd.Kind == protocol.CmdQuit {
			// The world tears the player down; drain until it closes out.
			break
		}
	}

	cancel()
	s.world.Leave() <- resp.PlayerID
}

func (s *Server) observerSession(ctx context.Context, conn net.Conn, r *bufio.Reader) {
	out := make(chan []byte, s.outBuffer)
	respCh := make(chan int, 1)
	s.world.ObserverJoin() <- world.ObserverJoinRequest{Out: out, Resp: respCh}
	id := <-respCh

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		writer(connCtx, conn, out)
		cancel()
	}()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	for {
		_ = conn.SetReadDeadline(time.Time{})
		line, err := readLine(r)
		if err != nil {
			break
		}
		req, perr := gfxproto.ParseRequest(line)
		if perr != nil {
			// Parse failures still route through the world so every reply
			// shares one writer.
			req = gfxproto.Invalid(perr)
		}
		select {
		case s.world.ObserverInbox() <- world.ObserverEnvelope{ObserverID: id, Req: req}:
		case <-connCtx.Done():
			s.world.ObserverLeave() <- id
			return
		}
	}

	cancel()
	s.world.ObserverLeave() <- id
}

// writer drains out to the connection until either side closes. The world
// closing out is the severance signal.
func writer(ctx context.Context, conn net.Conn, out chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-out:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if _, err := conn.Write(b); err != nil {
				return
			}
		}
	}
}

func writeLine(conn net.Conn, line string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := conn.Write([]byte(line + "\n"))
	return err
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
