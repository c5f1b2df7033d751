package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/iforgot/internal/models"
)

type memoryNote struct {
	note *models.Note
	seq  int64
}

// MemoryStorage keeps everything in process memory. It is meant for local
// runs and tests; owners are never validated.
type MemoryStorage struct {
	mu         sync.RWMutex
	seq        int64
	notes      map[string]*memoryNote
	categories map[string]*models.Category
	tasks      map[string][]*models.Task // keyed by note ID
	now        func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notes:      make(map[string]*memoryNote),
		categories: make(map[string]*models.Category),
		tasks:      make(map[string][]*models.Task),
		now:        time.Now,
	}
}

// Note methods
func (s *MemoryStorage) InsertNote(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	now := s.now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	s.seq++
	s.notes[note.ID] = &memoryNote{note: cloneNote(note), seq: s.seq}
	return nil
}

func (s *MemoryStorage) GetNote(ctx context.Context, ownerID, noteID string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.notes[noteID]
	if !exists || stored.note.UserID != ownerID {
		return nil, ErrNotFound
	}
	return s.joined(stored.note), nil
}

func (s *MemoryStorage) ListNotes(ctx context.Context, ownerID string, filter NoteFilter) ([]*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*memoryNote, 0)
	for _, stored := range s.notes {
		if stored.note.UserID != ownerID {
			continue
		}
		if filter.CategoryID != "" && (stored.note.CategoryID == nil || *stored.note.CategoryID != filter.CategoryID) {
			continue
		}
		matched = append(matched, stored)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.note.CreatedAt.Equal(b.note.CreatedAt) {
			return a.note.CreatedAt.After(b.note.CreatedAt)
		}
		return a.seq > b.seq
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	notes := make([]*models.Note, 0, len(matched))
	for _, stored := range matched {
		notes = append(notes, s.joined(stored.note))
	}
	return notes, nil
}

func (s *MemoryStorage) UpdateNoteContent(ctx context.Context, ownerID, noteID, content string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.notes[noteID]
	if !exists || stored.note.UserID != ownerID {
		return nil, ErrNotFound
	}
	stored.note.Content = content
	stored.note.UpdatedAt = s.now()
	return s.joined(stored.note), nil
}

func (s *MemoryStorage) UpdateNoteCategory(ctx context.Context, noteID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.notes[noteID]
	if !exists {
		return ErrNotFound
	}
	id := categoryID
	stored.note.CategoryID = &id
	stored.note.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStorage) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.notes[noteID]
	if !exists || stored.note.UserID != ownerID {
		return ErrNotFound
	}
	delete(s.notes, noteID)
	delete(s.tasks, noteID)
	return nil
}

// Category methods
func (s *MemoryStorage) InsertCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	now := s.now()
	category.CreatedAt = now
	category.UpdatedAt = now

	c := *category
	s.categories[category.ID] = &c
	return nil
}

func (s *MemoryStorage) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]*models.Category, 0)
	for _, c := range s.categories {
		if c.UserID == ownerID {
			copied := *c
			categories = append(categories, &copied)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if !categories[i].CreatedAt.Equal(categories[j].CreatedAt) {
			return categories[i].CreatedAt.Before(categories[j].CreatedAt)
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// Task methods
func (s *MemoryStorage) InsertTasks(ctx context.Context, noteID, ownerID string, descriptions []string) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[noteID]; !exists {
		return nil, ErrNotFound
	}

	now := s.now()
	tasks := make([]*models.Task, 0, len(descriptions))
	for _, description := range descriptions {
		task := &models.Task{
			ID:          uuid.New().String(),
			NoteID:      noteID,
			UserID:      ownerID,
			Description: description,
			CreatedAt:   now,
		}
		s.tasks[noteID] = append(s.tasks[noteID], task)
		copied := *task
		tasks = append(tasks, &copied)
	}
	return tasks, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// joined returns a copy of note with its category and tasks attached.
// Callers must hold at least a read lock.
func (s *MemoryStorage) joined(note *models.Note) *models.Note {
	n := cloneNote(note)
	if n.CategoryID != nil {
		if c, exists := s.categories[*n.CategoryID]; exists {
			copied := *c
			n.Category = &copied
		}
	}
	for _, t := range s.tasks[n.ID] {
		copied := *t
		n.Tasks = append(n.Tasks, &copied)
	}
	return n
}

func cloneNote(note *models.Note) *models.Note {
	n := *note
	n.Themes = copyStrings(note.Themes)
	n.ActionItems = copyStrings(note.ActionItems)
	if note.CategoryID != nil {
		id := *note.CategoryID
		n.CategoryID = &id
	}
	n.Category = nil
	n.Tasks = nil
	return &n
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
