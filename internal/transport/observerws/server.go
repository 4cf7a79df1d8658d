package observerws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"trantor/internal/gfxproto"
	"trantor/internal/sim/world"
)

// Server bridges the observer line protocol onto websockets for browser
// viewers. Each text frame carries one or more protocol lines; frames from
// the client are treated as observer request lines.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type bootstrapResponse struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Teams  []string `json:"teams"`
	Tick   uint64   `json:"tick"`
}

// BootstrapHandler serves static world parameters so a viewer can size its
// canvas before opening the stream.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		cfg := s.world.Config()
		resp := bootstrapResponse{
			Width:  cfg.Width,
			Height: cfg.Height,
			Teams:  cfg.Teams,
			Tick:   s.world.CurrentTick(),
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out := make(chan []byte, 4096)
		respCh := make(chan int, 1)
		select {
		case s.world.ObserverJoin() <- world.ObserverJoinRequest{Out: out, Resp: respCh}:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		id := <-respCh
		defer func() {
			select {
			case s.world.ObserverLeave() <- id:
			default:
				// World loop is stopping; nothing else to do.
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			for _, line := range strings.Split(string(msg), "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				req, perr := gfxproto.ParseRequest(line)
				if perr != nil {
					req = gfxproto.Invalid(perr)
				}
				select {
				case s.world.ObserverInbox() <- world.ObserverEnvelope{ObserverID: id, Req: req}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// IsLoopbackRemote reports whether the peer is local. Admin surfaces refuse
// everything else.
func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
