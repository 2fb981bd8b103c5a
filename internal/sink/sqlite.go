package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"call-compliance-go/internal/types"
)

const resultsSchema = `CREATE TABLE IF NOT EXISTS call_results (
	recording_id     TEXT NOT NULL,
	job_id           TEXT NOT NULL DEFAULT '',
	evaluation_id    TEXT,
	campaign         TEXT,
	compliance_score INTEGER,
	auto_fail        INTEGER NOT NULL DEFAULT 0,
	error            TEXT,
	duration_ms      INTEGER,
	payload          TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	PRIMARY KEY (recording_id, job_id)
)`

const upsertResultSQL = `INSERT INTO call_results
	(recording_id, job_id, evaluation_id, campaign, compliance_score, auto_fail, error, duration_ms, payload, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(recording_id, job_id) DO UPDATE SET
	evaluation_id = excluded.evaluation_id,
	campaign = excluded.campaign,
	compliance_score = excluded.compliance_score,
	auto_fail = excluded.auto_fail,
	error = excluded.error,
	duration_ms = excluded.duration_ms,
	payload = excluded.payload,
	updated_at = excluded.updated_at`

// SQLiteSink keeps the latest result per (recording, job) in a local file.
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer; modernc serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Publish(ctx context.Context, res types.CallResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	var (
		evalID, campaign sql.NullString
		score            sql.NullInt64
		autoFail         int
	)
	if r := res.Result; r != nil {
		evalID = sql.NullString{String: r.EvaluationID, Valid: true}
		campaign = sql.NullString{String: r.Campaign, Valid: true}
		score = sql.NullInt64{Int64: int64(r.ComplianceScore), Valid: true}
		if r.AutoFailTriggered {
			autoFail = 1
		}
	}
	_, err = s.db.ExecContext(ctx, upsertResultSQL,
		res.RecordingID, res.JobID, evalID, campaign, score, autoFail,
		sql.NullString{String: res.Error, Valid: res.Error != ""},
		res.DurationMs, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert result %s: %w", res.RecordingID, err)
	}
	return nil
}

// Lookup returns the stored results for a recording, ordered by job id.
func (s *SQLiteSink) Lookup(ctx context.Context, recordingID string) ([]types.CallResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM call_results WHERE recording_id = ? ORDER BY job_id`, recordingID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []types.CallResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var res types.CallResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, fmt.Errorf("decode stored result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error { return s.db.Close() }
