// Package ledger records conversion results in a SQLite database so later
// runs can skip models whose inputs did not change.
package ledger

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Faultbox/gravity-convert/internal/manifest"
)

// StatusConverted is the status string of a successful conversion.
const StatusConverted = "converted"

// Entry is one model result of a run.
type Entry struct {
	RunID    string
	Model    string
	Status   string
	Reason   string
	Digest   string
	Manifest string // Manifest format version the output was written with
	Recorded time.Time
}

// Run is one converter invocation.
type Run struct {
	ID      string
	Started time.Time
	Version string
}

// Ledger wraps the results database. Each Ledger opens a new run.
type Ledger struct {
	db  *sql.DB
	run Run
}

// Open opens (or creates) the ledger at path and starts a run. Use
// ":memory:" for a throwaway ledger.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes
	// from concurrent workers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	run := Run{ID: uuid.New().String(), Started: time.Now().UTC(), Version: manifest.Version}
	if _, err := db.Exec(
		`INSERT INTO runs (id, started, version) VALUES (?, ?, ?)`,
		run.ID, run.Started, run.Version,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("start run: %w", err)
	}

	return &Ledger{db: db, run: run}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Run returns the run this ledger records into.
func (l *Ledger) Run() Run {
	return l.run
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id      TEXT PRIMARY KEY,
			started DATETIME NOT NULL,
			version TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			seq      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL REFERENCES runs(id),
			model    TEXT NOT NULL,
			status   TEXT NOT NULL,
			reason   TEXT NOT NULL DEFAULT '',
			digest   TEXT NOT NULL DEFAULT '',
			manifest TEXT NOT NULL DEFAULT '',
			recorded DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS results_model ON results (model, status)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

// Record stores a result under the current run.
func (l *Ledger) Record(e Entry) error {
	_, err := l.db.Exec(
		`INSERT INTO results (run_id, model, status, reason, digest, manifest)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.run.ID, e.Model, e.Status, e.Reason, e.Digest, e.Manifest,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Model, err)
	}
	return nil
}

// LastConverted returns the most recent successful result for model from
// any run.
func (l *Ledger) LastConverted(model string) (Entry, bool, error) {
	var e Entry
	err := l.db.QueryRow(
		`SELECT run_id, model, status, reason, digest, manifest, recorded
		 FROM results WHERE model = ? AND status = ?
		 ORDER BY seq DESC LIMIT 1`,
		model, StatusConverted,
	).Scan(&e.RunID, &e.Model, &e.Status, &e.Reason, &e.Digest, &e.Manifest, &e.Recorded)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query %s: %w", model, err)
	}
	return e, true, nil
}

// Unchanged reports whether model was converted before from inputs with the
// same digest, into a manifest this converter can still read.
func (l *Ledger) Unchanged(model, digest string) (bool, error) {
	e, ok, err := l.LastConverted(model)
	if err != nil || !ok {
		return false, err
	}
	if e.Digest != digest {
		return false, nil
	}
	compatible, err := manifest.Compatible(e.Manifest)
	if err != nil {
		// An unreadable version only forces a rebuild.
		return false, nil
	}
	return compatible, nil
}

// Results returns the entries of a run in recording order.
func (l *Ledger) Results(runID string) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT run_id, model, status, reason, digest, manifest, recorded
		 FROM results WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.Model, &e.Status, &e.Reason, &e.Digest, &e.Manifest, &e.Recorded); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns every run, oldest first.
func (l *Ledger) Runs() ([]Run, error) {
	rows, err := l.db.Query(`SELECT id, started, version FROM runs ORDER BY started, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Started, &r.Version); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Digest hashes the content of the given files in order. The result
// changes when any file changes.
func Digest(paths ...string) (string, error) {
	h := sha256.New()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return "", fmt.Errorf("digest: %w", err)
		}
		n, err := io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("digest %s: %w", p, err)
		}
		fmt.Fprintf(h, "\x00%d\x00", n)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
