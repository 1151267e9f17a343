// Package store keeps per-tick simulation summaries in SQLite.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/df07/go-progressive-acoustics/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned for unknown run IDs
var ErrRunNotFound = errors.New("run not found")

// timeFormat sorts lexically in UTC
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite database of runs and their tick summaries
type Store struct {
	db *sql.DB
}

// Run is one simulation session
type Run struct {
	ID        string
	Scene     string
	Config    config.Config
	CreatedAt time.Time
}

// TickRecord summarises one source in one tick. Impulse responses are
// never stored.
type TickRecord struct {
	Tick        int
	Source      string
	Attempted   int
	Connected   int
	TotalEnergy float64
	Occlusion   float64
	RT60        float64
	C50         float64
	Duration    time.Duration
}

// Open opens or creates the database at path and migrates it to the latest
// schema. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases and pragmas consistent
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// MigrateUp runs all pending migrations. It is a no-op on an up to date
// database.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: that would close the shared connection
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the schema version and dirty flag, 0 when no
// migration has run
func (s *Store) MigrateVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// StartRun records a new run and returns its ID
func (s *Store) StartRun(sceneName string, cfg config.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	id := uuid.NewString()
	if _, err := s.db.Exec(
		`INSERT INTO runs (run_id, scene, config_json, created_at) VALUES (?, ?, ?, ?)`,
		id, sceneName, string(data), time.Now().UTC().Format(timeFormat),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// GetRun loads one run
func (s *Store) GetRun(runID string) (Run, error) {
	var (
		run       Run
		cfgJSON   string
		createdAt string
	)
	err := s.db.QueryRow(
		`SELECT run_id, scene, config_json, created_at FROM runs WHERE run_id = ?`, runID,
	).Scan(&run.ID, &run.Scene, &cfgJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run: %w", err)
	}
	if run.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return Run{}, fmt.Errorf("failed to parse run time: %w", err)
	}
	run.Config = config.DefaultConfig()
	if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
		return Run{}, fmt.Errorf("failed to decode run config: %w", err)
	}
	return run, nil
}

// ListRuns returns every run, newest first
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// RecordTick stores one tick summary for runID
func (s *Store) RecordTick(runID string, rec TickRecord) error {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	_, err := s.db.Exec(`
		INSERT INTO ticks (run_id, tick, source, attempted, connected, total_energy, occlusion, duration_ms, rt60, c50)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Tick, rec.Source, rec.Attempted, rec.Connected, rec.TotalEnergy, rec.Occlusion,
		float64(rec.Duration)/float64(time.Millisecond), rec.RT60, rec.C50,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tick %d: %w", rec.Tick, err)
	}
	return nil
}

// ListTicks returns the tick summaries of a run ordered by tick and source
func (s *Store) ListTicks(runID string) ([]TickRecord, error) {
	rows, err := s.db.Query(`
		SELECT tick, source, attempted, connected, total_energy, occlusion, duration_ms, rt60, c50
		FROM ticks WHERE run_id = ? ORDER BY tick, source`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticks: %w", err)
	}
	defer rows.Close()

	var records []TickRecord
	for rows.Next() {
		var (
			rec        TickRecord
			durationMs float64
		)
		if err := rows.Scan(&rec.Tick, &rec.Source, &rec.Attempted, &rec.Connected,
			&rec.TotalEnergy, &rec.Occlusion, &durationMs, &rec.RT60, &rec.C50); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}
		rec.Duration = time.Duration(durationMs * float64(time.Millisecond))
		records = append(records, rec)
	}
	return records, rows.Err()
}
