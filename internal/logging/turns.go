// Package logging keeps a SQLite log of answered turns so they can be
// reviewed and rated later.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gamesage/internal/answer"
)

const DefaultPath = "./gamesage.db"

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrTurnNotFound  = errors.New("turn not found")
)

// Turn is one logged question and its answer.
type Turn struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Query     string        `json:"query"`
	Draft     string        `json:"draft"`
	Record    answer.Record `json:"record"`
	Answer    string        `json:"answer"`
	Metadata  TurnMetadata  `json:"metadata"`
	Rating    *int          `json:"rating,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
}

type TurnMetadata struct {
	Game          string        `json:"game,omitempty"`
	TopicHint     answer.Topic  `json:"topic_hint,omitempty"`
	WantsSpoilers bool          `json:"wants_spoilers"`
	ResponseTime  time.Duration `json:"response_time_ms"`
	Fallback      bool          `json:"fallback"`
	Error         *string       `json:"error,omitempty"`
}

type TurnLogger struct {
	db *sql.DB
}

// Open opens (creating if needed) the turn log at path.
func Open(path string) (*TurnLogger, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := &TurnLogger{db: db}
	if err := logger.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return logger, nil
}

func (l *TurnLogger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		session_id TEXT NOT NULL,
		query TEXT NOT NULL,
		draft TEXT NOT NULL,
		record TEXT NOT NULL,
		answer TEXT NOT NULL,
		metadata TEXT NOT NULL,
		rating INTEGER,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_turns_timestamp ON turns(timestamp);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);
	CREATE INDEX IF NOT EXISTS idx_turns_rating ON turns(rating);
	`

	_, err := l.db.Exec(schema)
	return err
}

// LogTurn stores t and returns its id. ID, Timestamp, Rating and Notes are
// ignored.
func (l *TurnLogger) LogTurn(ctx context.Context, t Turn) (int64, error) {
	recordJSON, err := json.Marshal(t.Record)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal record: %w", err)
	}

	metadataJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, query, draft, record, answer, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.SessionID, t.Query, t.Draft, string(recordJSON), t.Answer, string(metadataJSON))
	if err != nil {
		return 0, fmt.Errorf("failed to insert turn: %w", err)
	}
	return res.LastInsertId()
}

// RecentTurns returns up to limit turns, newest first.
func (l *TurnLogger) RecentTurns(ctx context.Context, limit int) ([]Turn, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, timestamp, session_id, query, draft, record, answer, metadata, rating, notes
		FROM turns
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t                        Turn
			recordJSON, metadataJSON string
			rating                   sql.NullInt64
			notes                    sql.NullString
		)
		err := rows.Scan(&t.ID, &t.Timestamp, &t.SessionID, &t.Query, &t.Draft,
			&recordJSON, &t.Answer, &metadataJSON, &rating, &notes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(recordJSON), &t.Record); err != nil {
			return nil, fmt.Errorf("failed to parse record of turn %d: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &t.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata of turn %d: %w", t.ID, err)
		}
		if rating.Valid {
			r := int(rating.Int64)
			t.Rating = &r
		}
		if notes.Valid {
			t.Notes = &notes.String
		}
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// RateTurn sets a 1 to 5 rating and optional notes on a logged turn.
func (l *TurnLogger) RateTurn(ctx context.Context, id int64, rating int, notes string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	res, err := l.db.ExecContext(ctx, `
		UPDATE turns
		SET rating = ?, notes = ?
		WHERE id = ?
	`, rating, notesPtr, id)
	if err != nil {
		return fmt.Errorf("failed to rate turn: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrTurnNotFound, id)
	}
	return nil
}

func (l *TurnLogger) Close() error {
	return l.db.Close()
}
