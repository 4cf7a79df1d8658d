package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"trantor/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the match event stream.
// Writes are asynchronous and lossy under pressure; the JSONL event log is
// the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan world.MatchEvent
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan world.MatchEvent, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads. NORMAL is a decent
	// durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			type TEXT NOT NULL,
			player INTEGER,
			team TEXT,
			level INTEGER,
			detail TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_tick ON events(type, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_events_team_tick ON events(team, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteEvent(e world.MatchEvent) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- e:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source
		// of truth.
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	for e := range s.ch {
		_, _ = s.db.Exec(
			`INSERT INTO events (tick, type, player, team, level, detail) VALUES (?, ?, ?, ?, ?, ?)`,
			e.Tick, e.Type, e.Player, e.Team, e.Level, e.Detail,
		)
	}
}

// EventCountByType is a small aggregate used by the admin surface.
func (s *SQLiteIndex) EventCountByType() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM events GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, rows.Err()
}
