package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/player"
)

// Outcome is how a request ended
type Outcome string

const (
	OutcomePlayed      Outcome = "played"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Entry is one row of the play log
type Entry struct {
	ID        int64
	RequestID string
	Word      string
	Accent    audio.Accent
	Attempt   audio.AttemptKind
	Outcome   Outcome
	Code      audio.Code
	Message   string
	CreatedAt time.Time
}

// Stats summarises the play log
type Stats struct {
	Total        int
	ByOutcome    map[Outcome]int
	FallbackUsed int // played from the fallback source
}

// Store is the SQLite backed play log
type Store struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

const schema = `CREATE TABLE IF NOT EXISTS plays (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT    NOT NULL,
	word       TEXT    NOT NULL,
	accent     TEXT    NOT NULL,
	attempt    TEXT    NOT NULL,
	outcome    TEXT    NOT NULL,
	code       TEXT    NOT NULL DEFAULT '',
	message    TEXT    NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
)`

// Open opens or creates the play log at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// One connection serialises writers from the observer and readers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create plays table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS ix_plays_created ON plays (created_at)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create plays index: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores a terminal event. Other events are ignored.
func (s *Store) Record(ev player.Event) error {
	if !ev.Terminal() {
		return nil
	}

	var outcome Outcome
	switch ev.Kind {
	case player.PlaybackStarted:
		outcome = OutcomePlayed
	case player.RequestInterrupted:
		outcome = OutcomeInterrupted
	default:
		outcome = OutcomeFailed
	}

	var msg string
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("history store is closed")
	}

	_, err := s.db.Exec(
		`INSERT INTO plays (request_id, word, accent, attempt, outcome, code, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RequestID, ev.Word, string(ev.Accent), ev.Attempt.String(),
		string(outcome), string(audio.CodeOf(ev.Err)), msg, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record play of %q: %w", ev.Word, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT id, request_id, word, accent, attempt, outcome, code, message, created_at
		 FROM plays ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var accent, attempt, outcome, code string
		var created int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Word, &accent, &attempt, &outcome, &code, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("failed to read history row: %w", err)
		}
		e.Accent = audio.Accent(accent)
		e.Attempt = parseAttempt(attempt)
		e.Outcome = Outcome(outcome)
		e.Code = audio.Code(code)
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats counts entries per outcome
func (s *Store) Stats() (Stats, error) {
	st := Stats{ByOutcome: make(map[Outcome]int)}

	rows, err := s.db.Query(`SELECT outcome, COUNT(*) FROM plays GROUP BY outcome`)
	if err != nil {
		return st, fmt.Errorf("failed to query history stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return st, fmt.Errorf("failed to read history stats: %w", err)
		}
		st.ByOutcome[Outcome(outcome)] = n
		st.Total += n
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM plays WHERE outcome = ? AND attempt = ?`,
		string(OutcomePlayed), audio.Fallback.String(),
	).Scan(&st.FallbackUsed)
	if err != nil {
		return st, fmt.Errorf("failed to count fallback plays: %w", err)
	}

	return st, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func parseAttempt(s string) audio.AttemptKind {
	if s == audio.Fallback.String() {
		return audio.Fallback
	}
	return audio.Primary
}
