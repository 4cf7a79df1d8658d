package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"trantor/internal/server"
	"trantor/internal/sim/tuning"
	"trantor/internal/sim/world"
)

func main() {
	var (
		port   = flag.Int("p", 1234, "game port")
		width  = flag.Int("x", 32, "world width")
		height = flag.Int("y", 32, "world height")
		teams  = flag.String("n", "Blue,Red", "comma-separated team names")
		slots  = flag.Int("c", 1, "starting connection slots per team")
		freq   = flag.Float64("t", 10, "ticks per second")

		httpAddr   = flag.String("addr", "127.0.0.1:8080", "admin/observer http listen address (empty to disable)")
		dataDir    = flag.String("data", "./data", "runtime data directory (empty to disable persistence)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <data>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite event index")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "world seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" && *dataDir != "" {
		tp = filepath.Join(*dataDir, "tuning.yaml")
	}
	tune := tuning.Defaults()
	if tp != "" {
		loaded, err := tuning.Load(tp)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Fatalf("load tuning: %v", err)
			}
			logger.Printf("tuning not found (%s); using defaults", tp)
		} else {
			tune = loaded
		}
	}

	var teamNames []string
	for _, name := range strings.Split(*teams, ",") {
		if name = strings.TrimSpace(name); name != "" {
			teamNames = append(teamNames, name)
		}
	}

	cfg := server.Config{
		GameAddr:  fmt.Sprintf(":%d", *port),
		HTTPAddr:  strings.TrimSpace(*httpAddr),
		DataDir:   strings.TrimSpace(*dataDir),
		DisableDB: *disableDB,
		World: world.Config{
			Width:          *width,
			Height:         *height,
			Teams:          teamNames,
			SlotsPerTeam:   *slots,
			Frequency:      *freq,
			Seed:           *seed,
			QueueDepth:     tune.QueueDepth,
			SpawnCap:       tune.RegulatorSpawnCap,
			OutboundBuffer: tune.OutboundBuffer,
		},
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
