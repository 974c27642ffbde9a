package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vodnote/internal/config"
	"vodnote/internal/note"
)

// Store manages session persistence backed by SQLite. Two invariants are
// enforced at write time: at most one session per video identity, and a
// bounded record count with least-recently-updated eviction.
type Store struct {
	db       *sql.DB
	path     string
	capacity int
}

// Open initializes or connects to the session database and applies
// migrations. Failures are reported as ErrUnavailable.
func Open(cfg *config.Config) (*Store, error) {
	store, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return store, nil
}

func open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, capacity: cfg.Session.MaxSessions}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Capacity returns the configured session bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// List returns all sessions. Order is unspecified; callers sort.
func (s *Store) List(ctx context.Context) ([]*note.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*note.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// GetByID fetches a session by record identifier, nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*note.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// GetByVideoID fetches a session through the secondary video index, nil
// when absent.
func (s *Store) GetByVideoID(ctx context.Context, videoID string) (*note.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE video_id = ?`, videoID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by video: %w", err)
	}
	return session, nil
}

// Upsert writes a candidate session keyed by its video identity.
//
// When a session for the candidate's video already exists, the candidate is
// merged into it: record id and createdAt are preserved, updatedAt is
// refreshed. A second record for the same video is never created.
//
// When no session exists, the least-recently-updated sessions are evicted
// until the store has room, then a fresh record is inserted with
// synthesized id, createdAt, and updatedAt. The capacity check runs before
// the insert so the store never holds more than its capacity.
func (s *Store) Upsert(ctx context.Context, candidate note.Session) (*note.Session, error) {
	if strings.TrimSpace(candidate.Video.ID) == "" {
		return nil, errors.New("candidate video id is empty")
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE video_id = ?`, candidate.Video.ID)
	existing, err := scanSession(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup by video: %w", err)
	}

	var result note.Session
	if existing != nil {
		result = candidate
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		result.UpdatedAt = now

		notesJSON, err := marshalNotes(result.Notes)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions
             SET video_url = ?, video_name = ?, video_provider = ?, video_added_at = ?,
                 notes_json = ?, updated_at = ?
             WHERE id = ?`,
			result.Video.URL,
			result.Video.Name,
			nullableString(result.Video.Provider),
			result.Video.AddedAt.Format(time.RFC3339Nano),
			notesJSON,
			result.UpdatedAt.Format(time.RFC3339Nano),
			result.ID,
		); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	} else {
		if err := s.evictForInsert(ctx, tx); err != nil {
			return nil, err
		}

		result = candidate
		result.ID = uuid.NewString()
		result.CreatedAt = now
		result.UpdatedAt = now

		notesJSON, err := marshalNotes(result.Notes)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (
                id, video_id, video_url, video_name, video_provider,
                video_added_at, notes_json, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.ID,
			result.Video.ID,
			result.Video.URL,
			result.Video.Name,
			nullableString(result.Video.Provider),
			result.Video.AddedAt.Format(time.RFC3339Nano),
			notesJSON,
			result.CreatedAt.Format(time.RFC3339Nano),
			result.UpdatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return nil, fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return &result, nil
}

// evictForInsert removes least-recently-updated sessions until one more
// insert keeps the store at or under capacity.
func (s *Store) evictForInsert(ctx context.Context, tx *sql.Tx) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions`).Scan(&count); err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	if count < s.capacity {
		return nil
	}
	victims := count - s.capacity + 1
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE id IN (
            SELECT id FROM sessions ORDER BY updated_at ASC LIMIT ?
        )`, victims,
	); err != nil {
		return fmt.Errorf("evict oldest sessions: %w", err)
	}
	return nil
}

// DeleteByVideoID removes the session owning the given video identity.
// Returns ErrNotAssociated when no session is bound to that video.
func (s *Store) DeleteByVideoID(ctx context.Context, videoID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE video_id = ?`, videoID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotAssociated, videoID)
	}
	return nil
}

// Clear removes all sessions.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return res.RowsAffected()
}

// Health captures diagnostic information about the session database.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	TotalSessions    int
	IntegrityCheck   bool
}

// CheckHealth returns diagnostic information about the session database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat session database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("session database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		return health, fmt.Errorf("ping session database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sessions'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM sessions")
		if err := row.Scan(&health.TotalSessions); err != nil {
			return health, fmt.Errorf("count sessions: %w", err)
		}
	}

	var integrityResult string
	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	if err := row.Scan(&integrityResult); err != nil {
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const sessionColumns = "id, video_id, video_url, video_name, video_provider, video_added_at, notes_json, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*note.Session, error) {
	var (
		id         string
		videoID    string
		videoURL   string
		videoName  string
		provider   sql.NullString
		addedRaw   string
		notesJSON  string
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(&id, &videoID, &videoURL, &videoName, &provider, &addedRaw, &notesJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	session := &note.Session{
		ID: id,
		Video: note.Video{
			ID:       videoID,
			URL:      videoURL,
			Name:     videoName,
			Provider: provider.String,
		},
	}
	if added, err := parseTimeString(addedRaw); err == nil {
		session.Video.AddedAt = added
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	if err := json.Unmarshal([]byte(notesJSON), &session.Notes); err != nil {
		return nil, fmt.Errorf("decode notes for session %s: %w", id, err)
	}
	return session, nil
}

func marshalNotes(notes []note.Note) (string, error) {
	if notes == nil {
		notes = []note.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("encode notes: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
