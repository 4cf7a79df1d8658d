package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"trantor/internal/persistence/indexdb"
	persistlog "trantor/internal/persistence/log"
	"trantor/internal/sim/world"
	"trantor/internal/transport/observerws"
	"trantor/internal/transport/tcp"
)

// Config is the full runtime configuration: the match parameters plus the
// operational surfaces around them.
type Config struct {
	// Game listener ("host:port"). This is the line-protocol port players
	// and GRAPHIC observers dial.
	GameAddr string

	// Admin/observer HTTP listener. Empty disables it.
	HTTPAddr string

	World world.Config

	// Event log directory. Empty disables persistence entirely.
	DataDir string

	// Disable the sqlite read-model index even when DataDir is set.
	DisableDB bool
}

// Run starts the match and blocks until ctx is done. All listeners and the
// world loop are torn down before it returns.
func Run(ctx context.Context, cfg Config, logger *log.Logger) error {
	w, err := world.New(cfg.World)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}

	var sinks multiEventLogger
	if cfg.DataDir != "" {
		matchLog := persistlog.NewMatchLogger(cfg.DataDir)
		defer matchLog.Close()
		sinks = append(sinks, matchLog)

		if !cfg.DisableDB {
			idx, err := indexdb.OpenSQLite(cfg.DataDir + "/index.db")
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer idx.Close()
			sinks = append(sinks, idx)
		}
	}
	if len(sinks) > 0 {
		w.SetEventLogger(sinks)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := w.Run(runCtx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	ln, err := net.Listen("tcp", cfg.GameAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GameAddr, err)
	}
	logger.Printf("game listener on %s (%dx%d, %d teams, %g ticks/s)",
		ln.Addr(), cfg.World.Width, cfg.World.Height, len(cfg.World.Teams), cfg.World.Frequency)

	gameDone := make(chan error, 1)
	go func() {
		gameDone <- tcp.NewServer(w, logger, cfg.World.OutboundBuffer).Serve(runCtx, ln)
	}()

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           adminMux(w, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Printf("http listener on %s", cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("http: %v", err)
			}
		}()
	}

	<-ctx.Done()
	cancel()
	if httpSrv != nil {
		sdCtx, sdCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer sdCancel()
		_ = httpSrv.Shutdown(sdCtx)
	}
	return <-gameDone
}

func adminMux(w *world.World, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP trantor_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE trantor_world_tick gauge\n")
		fmt.Fprintf(rw, "trantor_world_tick %d\n", m.Tick)

		fmt.Fprintf(rw, "# HELP trantor_world_players Currently connected players.\n")
		fmt.Fprintf(rw, "# TYPE trantor_world_players gauge\n")
		fmt.Fprintf(rw, "trantor_world_players %d\n", m.Players)

		fmt.Fprintf(rw, "# HELP trantor_world_observers Currently connected observers.\n")
		fmt.Fprintf(rw, "# TYPE trantor_world_observers gauge\n")
		fmt.Fprintf(rw, "trantor_world_observers %d\n", m.Observers)

		fmt.Fprintf(rw, "# HELP trantor_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE trantor_world_step_ms gauge\n")
		fmt.Fprintf(rw, "trantor_world_step_ms %.3f\n", m.StepMS)
	})
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !observerws.IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			Tick    uint64        `json:"tick"`
			Metrics world.Metrics `json:"metrics"`
		}{
			Tick:    w.CurrentTick(),
			Metrics: w.Metrics(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})

	obsSrv := observerws.NewServer(w, logger)
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())
	return mux
}

// multiEventLogger fans match events out to every configured sink.
type multiEventLogger []world.EventLogger

func (m multiEventLogger) WriteEvent(e world.MatchEvent) error {
	for _, l := range m {
		_ = l.WriteEvent(e)
	}
	return nil
}
