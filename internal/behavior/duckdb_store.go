// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/logging"
)

// DuckDBConfig holds configuration for the DuckDB-backed event store.
type DuckDBConfig struct {
	// Path is the database file path. Empty means in-memory.
	Path string

	// MaxMemory is the DuckDB memory limit, e.g. "1GB".
	// Default: "1GB".
	MaxMemory string

	// Threads is the DuckDB worker thread count. 0 = runtime.NumCPU().
	Threads int
}

// DuckDBStore persists behavior events in DuckDB. The columnar layout keeps
// the analytic queries (per-user windows, per-kind aggregation) fast even
// with years of events on disk.
type DuckDBStore struct {
	conn *sql.DB
}

const eventsSchema = `
CREATE TABLE IF NOT EXISTS behavior_events (
	id               VARCHAR NOT NULL,
	user_id          VARCHAR,
	session_id       VARCHAR NOT NULL,
	event_type       VARCHAR NOT NULL,
	entity_kind      VARCHAR,
	entity_id        VARCHAR,
	event_data       VARCHAR,
	is_returning     BOOLEAN NOT NULL,
	profile_pct      DOUBLE NOT NULL,
	is_premium       BOOLEAN NOT NULL,
	user_type        VARCHAR,
	location         VARCHAR,
	engagement_score DOUBLE NOT NULL,
	occurred_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_user_time ON behavior_events (user_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_kind_time ON behavior_events (entity_kind, occurred_at);
`

// NewDuckDBStore opens (or creates) the event database and ensures schema.
func NewDuckDBStore(cfg DuckDBConfig) (*DuckDBStore, error) {
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = "1GB"
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	dsn := fmt.Sprintf("?threads=%d&max_memory=%s", threads, cfg.MaxMemory)
	if cfg.Path != "" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
		dsn = cfg.Path + dsn
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}

	if _, err := conn.Exec(eventsSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ensure event schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Msg("behavior event store ready")

	return &DuckDBStore{conn: conn}, nil
}

// Append implements Store.
func (s *DuckDBStore) Append(ctx context.Context, ev Event) error {
	var data []byte
	if len(ev.Data) > 0 {
		var err error
		data, err = json.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO behavior_events (
			id, user_id, session_id, event_type, entity_kind, entity_id,
			event_data, is_returning, profile_pct, is_premium, user_type,
			location, engagement_score, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, nullable(ev.UserID), ev.SessionID, string(ev.Type),
		nullable(string(ev.EntityKind)), nullable(ev.EntityID),
		nullable(string(data)), ev.Context.IsReturning,
		ev.Context.ProfileCompletionPct, ev.Context.IsPremium,
		nullable(ev.Context.UserType), nullable(ev.Context.Location),
		ev.EngagementScore, ev.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// EventsByUser implements Store.
func (s *DuckDBStore) EventsByUser(ctx context.Context, userID string, since time.Time) ([]Event, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, user_id, session_id, event_type, entity_kind, entity_id,
		       event_data, is_returning, profile_pct, is_premium, user_type,
		       location, engagement_score, occurred_at
		FROM behavior_events
		WHERE user_id = ? AND occurred_at >= ?
		ORDER BY occurred_at ASC`,
		userID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events by user: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventsByKind implements Store.
func (s *DuckDBStore) EventsByKind(ctx context.Context, kind string, since time.Time) ([]Event, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, user_id, session_id, event_type, entity_kind, entity_id,
		       event_data, is_returning, profile_pct, is_premium, user_type,
		       location, engagement_score, occurred_at
		FROM behavior_events
		WHERE entity_kind = ? AND occurred_at >= ?
		ORDER BY occurred_at ASC`,
		kind, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events by kind: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// DeleteOlderThan implements Store.
func (s *DuckDBStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM behavior_events WHERE occurred_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("retention cleanup: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // driver may not report; cleanup still succeeded
	}
	return int(n), nil
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}

// scanEvents reads all rows into Event values.
func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var (
			ev                                       Event
			userID, kind, entityID, data, utype, loc sql.NullString
			evType                                   string
		)
		if err := rows.Scan(
			&ev.ID, &userID, &ev.SessionID, &evType, &kind, &entityID,
			&data, &ev.Context.IsReturning, &ev.Context.ProfileCompletionPct,
			&ev.Context.IsPremium, &utype, &loc, &ev.EngagementScore,
			&ev.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		ev.Type = EventType(evType)
		ev.UserID = userID.String
		ev.EntityKind = catalog.Kind(kind.String)
		ev.EntityID = entityID.String
		ev.Context.UserType = utype.String
		ev.Context.Location = loc.String
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &ev.Data); err != nil {
				return nil, fmt.Errorf("unmarshal event data: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
