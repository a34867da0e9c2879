// Package journal persists fired trigger events to a small SQLite
// database for post-session review. It is a write-mostly append log,
// not track persistence across run boundaries: the tracker's in-memory
// state is still discarded at process exit.
package journal

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/slopevision/basesentry/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Kind distinguishes the first crossing of a target's rearm cycle from
// the repeats that follow before its trace collapses.
type Kind string

const (
	KindNew    Kind = "new"
	KindRepeat Kind = "repeat"
)

// Event is one fired trigger, ready to append.
type Event struct {
	Base             config.BaseType
	Sequence         byte
	Kind             Kind
	TargetID         string
	FrameTick        uint64
	CourseLength     float64
	FiredAtUnixNanos int64
}

// Journal wraps a *sql.DB migrated to the latest trigger_event schema.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// migrates it to the latest schema.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply pragmas: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrationsSource() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) { log.Printf("[journal migrate] "+format, v...) }
func (migrateLogger) Verbose() bool                          { return false }

func (j *Journal) newMigrate() (*migrate.Migrate, error) {
	src, err := j.migrationsSource()
	if err != nil {
		return nil, fmt.Errorf("journal: migrations filesystem: %w", err)
	}
	sourceDriver, err := iofs.New(src, ".")
	if err != nil {
		return nil, fmt.Errorf("journal: iofs source driver: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(j.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("journal: sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("journal: migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// migrateUp runs all pending migrations. The journal schema has
// exactly one migration today; the machinery is kept anyway so a
// second migration can be dropped in without touching Open.
func (j *Journal) migrateUp() error {
	m, err := j.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("journal: migrate up: %w", err)
	}
	return nil
}

// Append records a single fired trigger event.
func (j *Journal) Append(e Event) error {
	_, err := j.db.Exec(
		`INSERT INTO trigger_event (base, sequence, kind, target_id, frame_tick, course_length, fired_at_unix_nanos)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Base.String(), e.Sequence, string(e.Kind), e.TargetID, e.FrameTick, e.CourseLength, e.FiredAtUnixNanos,
	)
	if err != nil {
		return fmt.Errorf("journal: append event: %w", err)
	}
	return nil
}

// Recent returns the most recent events, most recent first, up to limit rows.
func (j *Journal) Recent(limit int) ([]Event, error) {
	rows, err := j.db.Query(
		`SELECT base, sequence, kind, target_id, frame_tick, course_length, fired_at_unix_nanos
		 FROM trigger_event ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var base, kind string
		if err := rows.Scan(&base, &e.Sequence, &kind, &e.TargetID, &e.FrameTick, &e.CourseLength, &e.FiredAtUnixNanos); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		e.Base = parseBaseType(base)
		e.Kind = Kind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

// All returns every event in ascending firing order, for the
// diagnostics report tool.
func (j *Journal) All() ([]Event, error) {
	rows, err := j.db.Query(
		`SELECT base, sequence, kind, target_id, frame_tick, course_length, fired_at_unix_nanos
		 FROM trigger_event ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query all: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var base, kind string
		if err := rows.Scan(&base, &e.Sequence, &kind, &e.TargetID, &e.FrameTick, &e.CourseLength, &e.FiredAtUnixNanos); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		e.Base = parseBaseType(base)
		e.Kind = Kind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

func parseBaseType(s string) config.BaseType {
	switch s {
	case "A":
		return config.BaseA
	case "B":
		return config.BaseB
	case "Timer":
		return config.BaseTimer
	case "Anemometer":
		return config.BaseAnemometer
	default:
		return config.BaseUnknown
	}
}

// Close closes the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
