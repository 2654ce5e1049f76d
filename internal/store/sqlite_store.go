// Package store provides SQLite-backed persistence for the event journal.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface,
// wrapped in sqlx for struct scanning.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	// The bindings replace the driver's embedded SQLite build, so go.mod pins
	// go-sqlite3 (and wazero) to the release that build was compiled for.
	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// SQLiteStore is the SQLite-backed journal store.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS chapters (
    id TEXT PRIMARY KEY,
    book_title TEXT NOT NULL,
    number INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    event_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chapters_book ON chapters(book_title, number);

-- Events are append-only; (chapter_id, seq) is the collection order
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    chapter_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    phrase TEXT NOT NULL,
    text TEXT NOT NULL,
    class TEXT NOT NULL,
    initiator TEXT NOT NULL,
    participants TEXT NOT NULL,
    location TEXT,
    previous_location TEXT,
    exciting INTEGER DEFAULT 0,
    exclaimed INTEGER DEFAULT 0,
    created_at INTEGER NOT NULL,
    UNIQUE (chapter_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_events_initiator ON events(chapter_id, initiator);
`

// eventRow is the flat shape of an events row.
type eventRow struct {
	ID               string         `db:"id"`
	ChapterID        string         `db:"chapter_id"`
	Seq              int            `db:"seq"`
	Phrase           string         `db:"phrase"`
	Text             string         `db:"text"`
	Class            string         `db:"class"`
	Initiator        string         `db:"initiator"`
	Participants     string         `db:"participants"`
	Location         sql.NullString `db:"location"`
	PreviousLocation sql.NullString `db:"previous_location"`
	Exciting         int            `db:"exciting"`
	Exclaimed        int            `db:"exclaimed"`
	CreatedAt        int64          `db:"created_at"`
}

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Chapters
// =============================================================================

func (s *SQLiteStore) CreateChapter(ch *Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	_, err := s.db.NamedExec(`
		INSERT INTO chapters (id, book_title, number, seed, event_count, created_at)
		VALUES (:id, :book_title, :number, :seed, :event_count, :created_at)
	`, ch)
	if err != nil {
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetChapter(id string) (*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ch Chapter
	err := s.db.Get(&ch, `SELECT * FROM chapters WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &ch, nil
}

func (s *SQLiteStore) ListChapters(bookTitle string) ([]*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Chapter
	var err error
	if bookTitle == "" {
		err = s.db.Select(&result, `SELECT * FROM chapters ORDER BY created_at, number`)
	} else {
		err = s.db.Select(&result, `SELECT * FROM chapters WHERE book_title = ? ORDER BY created_at, number`, bookTitle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return result, nil
}

func (s *SQLiteStore) CountChapters() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.Get(&count, `SELECT COUNT(*) FROM chapters`)
	return count, err
}

// =============================================================================
// Events
// =============================================================================

func (s *SQLiteStore) AppendEvents(chapterID string, records []*EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.Get(&next, `SELECT event_count FROM chapters WHERE id = ?`, chapterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("chapter %s not found", chapterID)
		}
		return fmt.Errorf("failed to read chapter: %w", err)
	}

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.ChapterID = chapterID
		r.Seq = next
		next++

		row, err := toRow(r)
		if err != nil {
			return err
		}
		_, err = tx.NamedExec(`
			INSERT INTO events (id, chapter_id, seq, phrase, text, class, initiator, participants,
				location, previous_location, exciting, exclaimed, created_at)
			VALUES (:id, :chapter_id, :seq, :phrase, :text, :class, :initiator, :participants,
				:location, :previous_location, :exciting, :exclaimed, :created_at)
		`, row)
		if err != nil {
			return fmt.Errorf("failed to append event %d: %w", r.Seq, err)
		}
	}

	if _, err := tx.Exec(`UPDATE chapters SET event_count = ? WHERE id = ?`, next, chapterID); err != nil {
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListEvents(chapterID string) ([]*EventRecord, error) {
	return s.selectEvents(`SELECT * FROM events WHERE chapter_id = ? ORDER BY seq`, chapterID)
}

func (s *SQLiteStore) ListEventsByInitiator(chapterID, initiator string) ([]*EventRecord, error) {
	return s.selectEvents(`SELECT * FROM events WHERE chapter_id = ? AND initiator = ? ORDER BY seq`, chapterID, initiator)
}

func (s *SQLiteStore) selectEvents(query string, args ...any) ([]*EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []eventRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	var result []*EventRecord
	for i := range rows {
		r, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *SQLiteStore) CountEvents(chapterID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.Get(&count, `SELECT COUNT(*) FROM events WHERE chapter_id = ?`, chapterID)
	return count, err
}

// =============================================================================
// Helpers
// =============================================================================

func toRow(r *EventRecord) (*eventRow, error) {
	participants, err := json.Marshal(r.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participants: %w", err)
	}
	return &eventRow{
		ID:               r.ID,
		ChapterID:        r.ChapterID,
		Seq:              r.Seq,
		Phrase:           r.Phrase,
		Text:             r.Text,
		Class:            r.Class,
		Initiator:        r.Initiator(),
		Participants:     string(participants),
		Location:         nullString(r.Location),
		PreviousLocation: nullString(r.PreviousLocation),
		Exciting:         boolToInt(r.Exciting),
		Exclaimed:        boolToInt(r.Exclaimed),
		CreatedAt:        r.CreatedAt,
	}, nil
}

func fromRow(row *eventRow) (*EventRecord, error) {
	r := &EventRecord{
		ID:               row.ID,
		ChapterID:        row.ChapterID,
		Seq:              row.Seq,
		Phrase:           row.Phrase,
		Text:             row.Text,
		Class:            row.Class,
		Location:         row.Location.String,
		PreviousLocation: row.PreviousLocation.String,
		Exciting:         row.Exciting == 1,
		Exclaimed:        row.Exclaimed == 1,
		CreatedAt:        row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Participants), &r.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants of event %d: %w", row.Seq, err)
	}
	return r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
