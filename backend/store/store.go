// ABOUTME: SQLite persistence for named machine fleets
// ABOUTME: Stores fleet economics and ordered machine lists across restarts

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
)

// DefaultFleet is the fleet name used when none is given
const DefaultFleet = "default"

// ErrNotFound is returned when a named fleet does not exist
var ErrNotFound = errors.New("fleet not found")

const schema = `
CREATE TABLE IF NOT EXISTS fleets (
	name             TEXT PRIMARY KEY,
	electricity_rate REAL NOT NULL,
	hours_per_day    REAL NOT NULL,
	updated_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS machines (
	fleet_name     TEXT NOT NULL REFERENCES fleets(name) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	id             TEXT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	memory_gb      REAL NOT NULL CHECK (memory_gb > 0),
	hardware_class TEXT NOT NULL DEFAULT '',
	gpu            TEXT NOT NULL DEFAULT '',
	bandwidth_gbs  REAL NOT NULL DEFAULT 0,
	active         INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (fleet_name, id)
);

CREATE INDEX IF NOT EXISTS idx_machines_position ON machines(fleet_name, position);
`

// FleetSummary describes a stored fleet without its machines
type FleetSummary = models.FleetSummary

// Store persists fleets in a SQLite database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening fleet store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing fleet store schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// openDB opens a single SQLite database with WAL and foreign keys enabled.
func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveFleet replaces the named fleet with spec in one transaction
func (s *Store) SaveFleet(ctx context.Context, name string, spec services.FleetSpec) error {
	if name == "" {
		return errors.New("fleet name is required")
	}
	if err := models.ValidateMachines(spec.Machines); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fleet save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fleets (name, electricity_rate, hours_per_day, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			electricity_rate = excluded.electricity_rate,
			hours_per_day = excluded.hours_per_day,
			updated_at = excluded.updated_at`,
		name, spec.Economics.ElectricityRate, spec.Economics.HoursPerDay, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving fleet %q: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM machines WHERE fleet_name = ?`, name); err != nil {
		return fmt.Errorf("clearing machines of fleet %q: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO machines (fleet_name, position, id, name, memory_gb, hardware_class, gpu, bandwidth_gbs, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing machine insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range spec.Machines {
		if _, err := stmt.ExecContext(ctx, name, i, m.ID, m.Name, m.MemoryGB, m.HardwareClass, m.GPU, m.BandwidthGBs, m.Active); err != nil {
			return fmt.Errorf("saving machine %q: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fleet save: %w", err)
	}
	return nil
}

// LoadFleet returns the named fleet with machines in their saved order
func (s *Store) LoadFleet(ctx context.Context, name string) (services.FleetSpec, error) {
	var spec services.FleetSpec
	err := s.db.QueryRowContext(ctx,
		`SELECT electricity_rate, hours_per_day FROM fleets WHERE name = ?`, name,
	).Scan(&spec.Economics.ElectricityRate, &spec.Economics.HoursPerDay)
	if errors.Is(err, sql.ErrNoRows) {
		return services.FleetSpec{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return services.FleetSpec{}, fmt.Errorf("loading fleet %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, memory_gb, hardware_class, gpu, bandwidth_gbs, active
		FROM machines WHERE fleet_name = ? ORDER BY position`, name)
	if err != nil {
		return services.FleetSpec{}, fmt.Errorf("loading machines of fleet %q: %w", name, err)
	}
	defer rows.Close()

	spec.Machines = []models.Machine{}
	for rows.Next() {
		var m models.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.MemoryGB, &m.HardwareClass, &m.GPU, &m.BandwidthGBs, &m.Active); err != nil {
			return services.FleetSpec{}, fmt.Errorf("scanning machine: %w", err)
		}
		spec.Machines = append(spec.Machines, m)
	}
	if err := rows.Err(); err != nil {
		return services.FleetSpec{}, fmt.Errorf("loading machines of fleet %q: %w", name, err)
	}
	return spec, nil
}

// ListFleets returns a summary of every stored fleet ordered by name
func (s *Store) ListFleets(ctx context.Context) ([]FleetSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.name, f.updated_at, COUNT(m.id)
		FROM fleets f LEFT JOIN machines m ON m.fleet_name = f.name
		GROUP BY f.name ORDER BY f.name`)
	if err != nil {
		return nil, fmt.Errorf("listing fleets: %w", err)
	}
	defer rows.Close()

	summaries := []FleetSummary{}
	for rows.Next() {
		var fs FleetSummary
		var updated int64
		if err := rows.Scan(&fs.Name, &updated, &fs.MachineCount); err != nil {
			return nil, fmt.Errorf("scanning fleet summary: %w", err)
		}
		fs.UpdatedAt = time.UnixMilli(updated).UTC()
		summaries = append(summaries, fs)
	}
	return summaries, rows.Err()
}

// DeleteFleet removes the named fleet and its machines
func (s *Store) DeleteFleet(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fleets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting fleet %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}
