// Package store provides persistence for the event journal.
// Only the raw simulation events are journalled, never the edited prose.
package store

// Chapter is one simulated chapter of a book.
type Chapter struct {
	ID         string `json:"id" db:"id"`
	BookTitle  string `json:"bookTitle" db:"book_title"`
	Number     int    `json:"number" db:"number"`
	Seed       int64  `json:"seed" db:"seed"`
	EventCount int    `json:"eventCount" db:"event_count"`
	CreatedAt  int64  `json:"createdAt" db:"created_at"`
}

// EventRecord is a collected event as it left the simulation, before the
// Editor touched it.
type EventRecord struct {
	ID        string `json:"id"`
	ChapterID string `json:"chapterId"`
	Seq       int    `json:"seq"`
	Phrase    string `json:"phrase"`
	Text      string `json:"text"`
	Class     string `json:"class"`

	// Participant names, initiator first
	Participants     []string `json:"participants"`
	Location         string   `json:"location,omitempty"`
	PreviousLocation string   `json:"previousLocation,omitempty"`
	Exciting         bool     `json:"exciting"`
	Exclaimed        bool     `json:"exclaimed"`
	CreatedAt        int64    `json:"createdAt"`
}

// Initiator returns the name of the participant who caused the event.
func (r *EventRecord) Initiator() string {
	if len(r.Participants) == 0 {
		return ""
	}
	return r.Participants[0]
}

// Storer defines the interface for journal persistence.
// This allows swapping between MemStore (testing) and SQLiteStore (production).
type Storer interface {
	// Chapters
	CreateChapter(ch *Chapter) error
	GetChapter(id string) (*Chapter, error)
	ListChapters(bookTitle string) ([]*Chapter, error)
	CountChapters() (int, error)

	// Events
	AppendEvents(chapterID string, records []*EventRecord) error
	ListEvents(chapterID string) ([]*EventRecord, error)
	ListEventsByInitiator(chapterID, initiator string) ([]*EventRecord, error)
	CountEvents(chapterID string) (int, error)

	// Lifecycle
	Close() error
}
