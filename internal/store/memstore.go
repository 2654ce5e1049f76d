package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu       sync.RWMutex
	chapters map[string]*Chapter
	events   map[string][]*EventRecord
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		chapters: make(map[string]*Chapter),
		events:   make(map[string][]*EventRecord),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// =============================================================================
// Chapters
// =============================================================================

func (s *MemStore) CreateChapter(ch *Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if _, ok := s.chapters[ch.ID]; ok {
		return fmt.Errorf("chapter %s already exists", ch.ID)
	}
	copy := *ch
	s.chapters[ch.ID] = &copy
	return nil
}

func (s *MemStore) GetChapter(id string) (*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ch, ok := s.chapters[id]; ok {
		copy := *ch
		return &copy, nil
	}
	return nil, nil
}

func (s *MemStore) ListChapters(bookTitle string) ([]*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Chapter
	for _, ch := range s.chapters {
		if bookTitle == "" || ch.BookTitle == bookTitle {
			copy := *ch
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Number < result[j].Number
	})
	return result, nil
}

func (s *MemStore) CountChapters() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chapters), nil
}

// =============================================================================
// Events
// =============================================================================

func (s *MemStore) AppendEvents(chapterID string, records []*EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.chapters[chapterID]
	if !ok {
		return fmt.Errorf("chapter %s not found", chapterID)
	}
	existing := s.events[chapterID]
	for i, r := range records {
		copy := *r
		copy.Participants = append([]string(nil), r.Participants...)
		if copy.ID == "" {
			copy.ID = uuid.NewString()
		}
		copy.ChapterID = chapterID
		copy.Seq = len(existing) + i
		r.ID, r.ChapterID, r.Seq = copy.ID, copy.ChapterID, copy.Seq
		s.events[chapterID] = append(s.events[chapterID], &copy)
	}
	ch.EventCount = len(s.events[chapterID])
	return nil
}

func (s *MemStore) ListEvents(chapterID string) ([]*EventRecord, error) {
	return s.filterEvents(chapterID, func(*EventRecord) bool { return true }), nil
}

func (s *MemStore) ListEventsByInitiator(chapterID, initiator string) ([]*EventRecord, error) {
	return s.filterEvents(chapterID, func(r *EventRecord) bool { return r.Initiator() == initiator }), nil
}

func (s *MemStore) filterEvents(chapterID string, keep func(*EventRecord) bool) []*EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*EventRecord
	for _, r := range s.events[chapterID] {
		if keep(r) {
			copy := *r
			copy.Participants = append([]string(nil), r.Participants...)
			result = append(result, &copy)
		}
	}
	return result
}

func (s *MemStore) CountEvents(chapterID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[chapterID]), nil
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
