// Package reports keeps a queryable history of frame reports and pushes new
// ones to websocket subscribers.
package reports

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/models"
)

const defaultLimit = 100

// Store persists frame reports in SQLite
type Store struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Filter selects reports; zero values match everything
type Filter struct {
	Source         string
	Since          time.Time
	ViolationsOnly bool
	Limit          int
}

// Summary aggregates the reports of one source, or all sources
type Summary struct {
	Source                 string    `json:"source,omitempty"`
	Frames                 int64     `json:"frames"`
	FramesWithViolations   int64     `json:"frames_with_violations"`
	MaxViolations          int       `json:"max_violations"`
	AvgViolationPercentage float64   `json:"avg_violation_percentage"`
	LastFrameAt            time.Time `json:"last_frame_at,omitempty"`
}

func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("path", path).Msg("Report store ready")
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frame_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		frame_id INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		min_distance REAL NOT NULL,
		detection_count INTEGER NOT NULL,
		violation_count INTEGER NOT NULL,
		violations TEXT NOT NULL DEFAULT '[]',
		violation_percentage REAL NOT NULL,
		processing_time TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_frame_reports_source ON frame_reports(source);
	CREATE INDEX IF NOT EXISTS idx_frame_reports_timestamp ON frame_reports(timestamp);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// PublishReport stores report
func (s *Store) PublishReport(report models.FrameReport) error {
	violations, err := json.Marshal(report.Violations)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.Exec(`
		INSERT INTO frame_reports (worker_id, source, frame_id, timestamp, width, height, min_distance,
			detection_count, violation_count, violations, violation_percentage, processing_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.WorkerID, report.Source, report.FrameID, report.Timestamp.UTC(), report.Width, report.Height,
		report.MinDistance, report.DetectionCount, report.ViolationCount, string(violations),
		report.ViolationPercentage, report.ProcessingTime)
	if err != nil {
		return fmt.Errorf("failed to insert frame report: %w", err)
	}
	return nil
}

// List returns matching reports, newest first
func (s *Store) List(f Filter) ([]models.FrameReport, error) {
	where, args := f.clause()
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	args = append(args, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT worker_id, source, frame_id, timestamp, width, height, min_distance,
			detection_count, violation_count, violations, violation_percentage, processing_time
		FROM frame_reports`+where+`
		ORDER BY timestamp DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query frame reports: %w", err)
	}
	defer rows.Close()

	out := []models.FrameReport{}
	for rows.Next() {
		var r models.FrameReport
		var violations string
		if err := rows.Scan(&r.WorkerID, &r.Source, &r.FrameID, &r.Timestamp, &r.Width, &r.Height, &r.MinDistance,
			&r.DetectionCount, &r.ViolationCount, &violations, &r.ViolationPercentage, &r.ProcessingTime); err != nil {
			return nil, fmt.Errorf("failed to scan frame report: %w", err)
		}
		if err := json.Unmarshal([]byte(violations), &r.Violations); err != nil {
			return nil, fmt.Errorf("failed to decode violations: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summarize aggregates reports matching f. Limit is ignored.
func (s *Store) Summarize(f Filter) (Summary, error) {
	where, args := f.clause()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum Summary
	var last sql.NullString
	err := s.conn.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN violation_count > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(violation_count), 0),
			COALESCE(AVG(violation_percentage), 0),
			MAX(timestamp)
		FROM frame_reports`+where, args...).
		Scan(&sum.Frames, &sum.FramesWithViolations, &sum.MaxViolations, &sum.AvgViolationPercentage, &last)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize frame reports: %w", err)
	}

	sum.Source = f.Source
	if last.Valid {
		// aggregates lose the column type, so the timestamp comes back as text
		if t, err := parseTimestamp(last.String); err == nil {
			sum.LastFrameAt = t
		}
	}
	return sum, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (f Filter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since.UTC())
	}
	if f.ViolationsOnly {
		conds = append(conds, "violation_count > 0")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
