// Package db persists telemetry arrival timing to sqlite so streaming runs
// can be compared after the fact.
package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Recorder writes one row per observed telemetry packet, grouped under a
// run ID generated when the recorder is opened.
type Recorder struct {
	db    *sql.DB
	runID string
}

// NewRecorder opens (creating if needed) the sqlite database at path and
// starts a new recording run.
func NewRecorder(path string) (*Recorder, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS packet_arrivals (
			run_id            TEXT,
			descriptor        INTEGER,
			interval_ms       BIGINT,
			first_seen        INTEGER,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		conn.Close()
		return nil, err
	}

	runID := uuid.New().String()
	if _, err := conn.Exec("INSERT INTO runs (run_id) VALUES (?)", runID); err != nil {
		conn.Close()
		return nil, err
	}

	return &Recorder{db: conn, runID: runID}, nil
}

// RunID returns the identifier of the current recording run.
func (r *Recorder) RunID() string {
	return r.runID
}

// RecordArrival persists one packet arrival observation.
func (r *Recorder) RecordArrival(descriptor byte, elapsed time.Duration, first bool) error {
	_, err := r.db.Exec(
		"INSERT INTO packet_arrivals (run_id, descriptor, interval_ms, first_seen) VALUES (?, ?, ?, ?)",
		r.runID, descriptor, elapsed.Milliseconds(), first,
	)
	return err
}

// ArrivalCount reports how many arrivals have been recorded for a descriptor
// in the current run.
func (r *Recorder) ArrivalCount(descriptor byte) (int, error) {
	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM packet_arrivals WHERE run_id = ? AND descriptor = ?",
		r.runID, descriptor,
	).Scan(&n)
	return n, err
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
