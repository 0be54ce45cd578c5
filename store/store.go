// Package store persists daily records, generated insights, analysis run
// history, and trained network snapshots in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ringpulse/health"
	"ringpulse/insight"
)

var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        date TEXT NOT NULL UNIQUE,
        sleep_hours REAL,
        sleep_efficiency REAL,
        bedtime_minutes INTEGER,
        resting_hr REAL,
        hrv REAL,
        respiratory_rate REAL,
        temp_deviation REAL,
        steps INTEGER,
        active_minutes INTEGER,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS insights (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id INTEGER,
        kind TEXT NOT NULL,
        severity TEXT NOT NULL,
        confidence REAL DEFAULT 0,
        title TEXT NOT NULL,
        body TEXT NOT NULL,
        evidence TEXT,
        generated_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS analysis_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        started_at DATETIME NOT NULL,
        finished_at DATETIME,
        record_count INTEGER DEFAULT 0,
        insight_count INTEGER DEFAULT 0,
        status TEXT DEFAULT 'running'
    );
    CREATE TABLE IF NOT EXISTS net_snapshots (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        snapshot BLOB NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecords upserts daily records keyed by date.
func (s *Store) SaveRecords(records []health.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
        INSERT OR REPLACE INTO records (
            date, sleep_hours, sleep_efficiency, bedtime_minutes,
            resting_hr, hrv, respiratory_rate, temp_deviation,
            steps, active_minutes
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			r.Date.Format("2006-01-02"), r.SleepHours, r.SleepEfficiency,
			r.BedtimeMinutes, r.RestingHR, r.HRV, r.RespiratoryRate,
			r.TempDeviation, r.Steps, r.ActiveMinutes,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadRecords returns up to limit records in chronological order; limit <= 0
// means all of them.
func (s *Store) LoadRecords(limit int) ([]health.DailyRecord, error) {
	query := `
        SELECT date, sleep_hours, sleep_efficiency, bedtime_minutes,
               resting_hr, hrv, respiratory_rate, temp_deviation,
               steps, active_minutes
        FROM records ORDER BY date ASC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		// Take the newest N, still returned oldest-first.
		query = `SELECT * FROM (
            SELECT date, sleep_hours, sleep_efficiency, bedtime_minutes,
                   resting_hr, hrv, respiratory_rate, temp_deviation,
                   steps, active_minutes
            FROM records ORDER BY date DESC LIMIT ?
        ) ORDER BY date ASC`
		rows, err = s.db.Query(query, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []health.DailyRecord
	for rows.Next() {
		var r health.DailyRecord
		var date string
		err := rows.Scan(&date, &r.SleepHours, &r.SleepEfficiency, &r.BedtimeMinutes,
			&r.RestingHR, &r.HRV, &r.RespiratoryRate, &r.TempDeviation,
			&r.Steps, &r.ActiveMinutes)
		if err != nil {
			return nil, err
		}
		r.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// BeginRun records the start of an analysis run and returns its id.
func (s *Store) BeginRun(startedAt time.Time, recordCount int) (int64, error) {
	result, err := s.db.Exec(`
        INSERT INTO analysis_runs (started_at, record_count)
        VALUES (?, ?)`, startedAt.UTC(), recordCount)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// FinishRun closes out a run with its outcome.
func (s *Store) FinishRun(runID int64, finishedAt time.Time, insightCount int, status string) error {
	_, err := s.db.Exec(`
        UPDATE analysis_runs
        SET finished_at = ?, insight_count = ?, status = ?
        WHERE id = ?`, finishedAt.UTC(), insightCount, status, runID)
	return err
}

// SaveInsights stores the insights produced by one run.
func (s *Store) SaveInsights(runID int64, insights []insight.Insight) error {
	if len(insights) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
        INSERT INTO insights (run_id, kind, severity, confidence, title, body, evidence, generated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, in := range insights {
		var evidence []byte
		if len(in.Evidence) > 0 {
			evidence, err = json.Marshal(in.Evidence)
			if err != nil {
				tx.Rollback()
				return err
			}
		}
		_, err := stmt.Exec(runID, in.Kind, in.Severity, in.Confidence,
			in.Title, in.Body, evidence, in.GeneratedAt.UTC())
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecentInsights returns the newest insights, newest first.
func (s *Store) RecentInsights(limit int) ([]insight.Insight, error) {
	rows, err := s.db.Query(`
        SELECT kind, severity, confidence, title, body, evidence, generated_at
        FROM insights ORDER BY generated_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []insight.Insight
	for rows.Next() {
		var in insight.Insight
		var evidence sql.NullString
		err := rows.Scan(&in.Kind, &in.Severity, &in.Confidence,
			&in.Title, &in.Body, &evidence, &in.GeneratedAt)
		if err != nil {
			return nil, err
		}
		if evidence.Valid && evidence.String != "" {
			if err := json.Unmarshal([]byte(evidence.String), &in.Evidence); err != nil {
				return nil, err
			}
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// SaveNetSnapshot upserts a serialized network under a name.
func (s *Store) SaveNetSnapshot(name string, snapshot []byte) error {
	_, err := s.db.Exec(`
        INSERT INTO net_snapshots (name, snapshot, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(name) DO UPDATE SET snapshot = excluded.snapshot,
                                        updated_at = CURRENT_TIMESTAMP`,
		name, snapshot)
	return err
}

// LoadNetSnapshot fetches a serialized network by name.
func (s *Store) LoadNetSnapshot(name string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT snapshot FROM net_snapshots WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}
