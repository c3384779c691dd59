package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/bobby-s-dev/weather-agent/internal/sentiment"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrChatNotFound = errors.New("chat not found")

// Store provides SQLite-based persistence for queries and chat transcripts.
type Store struct {
	db     *sql.DB
	clock  clock.Clock
	logger *zap.Logger
}

// NewStore opens (or creates) the database at path.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serialises writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	store := &Store{db: db, clock: clock.New(), logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Initialized history database", zap.String("path", path))
	return store, nil
}

// SetClock overrides the clock used for timestamps.
func (s *Store) SetClock(c clock.Clock) {
	s.clock = c
}

// Close checkpoints the write-ahead log and closes the database.
func (s *Store) Close() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return multierr.Combine(err, s.db.Close())
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		user_query TEXT NOT NULL,
		agent_response TEXT NOT NULL,
		location TEXT NOT NULL,
		date_requested TEXT NOT NULL,
		sentiment_score REAL NOT NULL DEFAULT 0,
		sentiment_label TEXT NOT NULL DEFAULT 'neutral'
	);

	CREATE INDEX IF NOT EXISTS idx_query_history_location ON query_history(location);
	CREATE INDEX IF NOT EXISTS idx_query_history_timestamp ON query_history(timestamp);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		messages TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save records a query and the response it got, scored for sentiment.
func (s *Store) Save(ctx context.Context, query, response, location, date string) error {
	score := sentiment.Polarity(query)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (timestamp, user_query, agent_response, location, date_requested, sentiment_score, sentiment_label)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.clock.Now().UTC(), query, response, strings.ToLower(location), date, score, sentiment.Label(score),
	)
	if err != nil {
		return fmt.Errorf("save query: %w", err)
	}
	return nil
}

// Recent returns the newest queries, optionally only those for location.
func (s *Store) Recent(ctx context.Context, location string, limit int) ([]models.QueryRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	const columns = `id, timestamp, user_query, agent_response, location, date_requested, sentiment_score, sentiment_label`

	var (
		rows *sql.Rows
		err  error
	)
	if location != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+columns+` FROM query_history
			WHERE location = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?`,
			strings.ToLower(location), limit,
		)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+columns+` FROM query_history
			ORDER BY timestamp DESC, id DESC
			LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var r models.QueryRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Query, &r.Response, &r.Location,
			&r.DateRequested, &r.SentimentScore, &r.SentimentLabel); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune deletes query rows older than before and reports how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM query_history WHERE timestamp < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return result.RowsAffected()
}

// SaveChat inserts or replaces a whole chat transcript.
func (s *Store) SaveChat(ctx context.Context, chatID, name string, messages []models.ChatMessage) error {
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	now := s.clock.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (id, name, messages, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = ?, messages = ?, updated_at = ?`,
		chatID, name, string(payload), now, name, string(payload), now,
	)
	if err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	return nil
}

// Chat loads one transcript.
func (s *Store) Chat(ctx context.Context, chatID string) (*models.Chat, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, messages, updated_at FROM chats WHERE id = ?`, chatID)

	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	return chat, err
}

// AllChats returns every transcript, most recently updated first.
func (s *Store) AllChats(ctx context.Context) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, messages, updated_at FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChat(row scanner) (*models.Chat, error) {
	var (
		chat    models.Chat
		payload string
	)
	if err := row.Scan(&chat.ID, &chat.Name, &payload, &chat.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &chat.Messages); err != nil {
		return nil, fmt.Errorf("decode chat %s: %w", chat.ID, err)
	}
	return &chat, nil
}
