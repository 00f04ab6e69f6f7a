package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
	"github.com/austinbrady/Assist-sub001/internal/persona"
	"github.com/austinbrady/Assist-sub001/internal/values"
)

// PGStore is the PostgreSQL-backed UserStore.
type PGStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPGStore creates a PGStore with a pgx connection pool.
func NewPGStore(dsn string, logger *zap.Logger) (*PGStore, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("PostgreSQL connected")
	return &PGStore{db: pool, logger: logger}, nil
}

// Migrate reads and executes all .up.sql files from the migrations directory.
func (s *PGStore) Migrate(ctx context.Context, migrationsDir string) error {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(migrationsDir, f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		s.logger.Info("Migration applied", zap.String("file", f))
	}
	return nil
}

// Close shuts down the connection pool.
func (s *PGStore) Close() {
	s.db.Close()
}

// SaveConversation upserts the full record and registers the user.
func (s *PGStore) SaveConversation(ctx context.Context, rec *activity.ConversationRecord) error {
	messages, err := json.Marshal(rec.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO conversations (id, username, created_at, messages, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id)
		DO UPDATE SET messages = $4, updated_at = now()`,
		rec.ConversationID, rec.Username, rec.CreatedAt, messages,
	)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO users (username) VALUES ($1)
		ON CONFLICT (username) DO NOTHING`, rec.Username)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

// GetConversation loads one record; ErrNotFound if absent.
func (s *PGStore) GetConversation(ctx context.Context, username, conversationID string) (*activity.ConversationRecord, error) {
	rec := &activity.ConversationRecord{Username: username, ConversationID: conversationID}
	var messages []byte
	err := s.db.QueryRow(ctx, `
		SELECT created_at, messages
		FROM conversations
		WHERE username = $1 AND id = $2`, username, conversationID,
	).Scan(&rec.CreatedAt, &messages)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if err := json.Unmarshal(messages, &rec.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return rec, nil
}

// RecentConversations lists records most recently updated first.
func (s *PGStore) RecentConversations(ctx context.Context, username string, limit int) ([]*activity.ConversationRecord, error) {
	query := `
		SELECT id, created_at, messages
		FROM conversations
		WHERE username = $1
		ORDER BY updated_at DESC`
	args := []any{username}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var recs []*activity.ConversationRecord
	for rows.Next() {
		rec := &activity.ConversationRecord{Username: username}
		var messages []byte
		if err := rows.Scan(&rec.ConversationID, &rec.CreatedAt, &messages); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if err := json.Unmarshal(messages, &rec.Messages); err != nil {
			// One bad row never fails the scan.
			s.logger.Warn("skipping conversation with bad messages payload",
				zap.String("conversation_id", rec.ConversationID), zap.Error(err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// AllConversations lists every record for the user.
func (s *PGStore) AllConversations(ctx context.Context, username string) ([]*activity.ConversationRecord, error) {
	return s.RecentConversations(ctx, username, 0)
}

// AppendActivity inserts an entry and trims the log to its cap.
func (s *PGStore) AppendActivity(ctx context.Context, username string, entry activity.Entry) error {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("marshal activity data: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO activity_entries (id, username, entry_type, data, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)`,
		username, entry.Type, data, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	// Oldest rows past the cap fall off, same as the in-memory log.
	_, err = s.db.Exec(ctx, `
		DELETE FROM activity_entries
		WHERE username = $1 AND id NOT IN (
			SELECT id FROM activity_entries
			WHERE username = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`, username, activity.DefaultLogCap)
	if err != nil {
		return fmt.Errorf("trim activity log: %w", err)
	}
	return nil
}

// ActivityLog loads the bounded log oldest first.
func (s *PGStore) ActivityLog(ctx context.Context, username string) (*activity.Log, error) {
	rows, err := s.db.Query(ctx, `
		SELECT entry_type, data, created_at
		FROM activity_entries
		WHERE username = $1
		ORDER BY created_at ASC`, username)
	if err != nil {
		return nil, fmt.Errorf("load activity log: %w", err)
	}
	defer rows.Close()

	log := activity.NewLog()
	for rows.Next() {
		var entry activity.Entry
		var data []byte
		if err := rows.Scan(&entry.Type, &data, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		if len(data) > 0 {
			json.Unmarshal(data, &entry.Data)
		}
		log.Append(entry)
	}
	return log, rows.Err()
}

// ListUsers returns registered usernames sorted.
func (s *PGStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadValueSystem returns nil, nil when no row exists.
func (s *PGStore) LoadValueSystem(ctx context.Context, username string) (*values.System, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `
		SELECT data FROM value_systems WHERE username = $1`, username,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load value system: %w", err)
	}
	var sys values.System
	if err := json.Unmarshal(data, &sys); err != nil {
		s.logger.Warn("bad value system payload, treating as new",
			zap.String("user", username), zap.Error(err))
		return nil, nil
	}
	return &sys, nil
}

func (s *PGStore) SaveValueSystem(ctx context.Context, username string, sys *values.System) error {
	data, err := json.Marshal(sys)
	if err != nil {
		return fmt.Errorf("marshal value system: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO value_systems (username, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (username)
		DO UPDATE SET data = $2, updated_at = now()`, username, data)
	if err != nil {
		return fmt.Errorf("save value system: %w", err)
	}
	return nil
}

// LoadCharacter returns nil, nil when no row exists.
func (s *PGStore) LoadCharacter(ctx context.Context, username string) (*persona.Character, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `
		SELECT data FROM characters WHERE username = $1`, username,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}
	var ch persona.Character
	if err := json.Unmarshal(data, &ch); err != nil {
		s.logger.Warn("bad character payload, treating as new",
			zap.String("user", username), zap.Error(err))
		return nil, nil
	}
	return &ch, nil
}

func (s *PGStore) SaveCharacter(ctx context.Context, ch *persona.Character) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal character: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO characters (username, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (username)
		DO UPDATE SET data = $2, updated_at = now()`, ch.Username, data)
	if err != nil {
		return fmt.Errorf("save character: %w", err)
	}
	return nil
}
