package storage

import (
	"context"
	"errors"

	"github.com/xaenox/iforgot/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("not found")
	// ErrOwnerNotFound is returned when a write references an owner that
	// does not exist yet.
	ErrOwnerNotFound = errors.New("owner not found")
)

type Storage interface {
	Close() error

	NoteStorage
	CategoryStorage
	TaskStorage
}

// NoteFilter narrows ListNotes. Zero values mean no filtering.
type NoteFilter struct {
	CategoryID string
	Limit      int
}

type NoteStorage interface {
	// InsertNote stores a new note. ID and timestamps are filled in when
	// empty.
	InsertNote(ctx context.Context, note *models.Note) error
	// GetNote returns a single note of the owner with its category and tasks.
	GetNote(ctx context.Context, ownerID, noteID string) (*models.Note, error)
	// ListNotes returns the owner's notes with their category and tasks,
	// newest first.
	ListNotes(ctx context.Context, ownerID string, filter NoteFilter) ([]*models.Note, error)
	UpdateNoteContent(ctx context.Context, ownerID, noteID, content string) (*models.Note, error)
	UpdateNoteCategory(ctx context.Context, noteID, categoryID string) error
	// DeleteNote removes a note of the owner together with its tasks.
	DeleteNote(ctx context.Context, ownerID, noteID string) error
}

type CategoryStorage interface {
	InsertCategory(ctx context.Context, category *models.Category) error
	ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error)
}

type TaskStorage interface {
	InsertTasks(ctx context.Context, noteID, ownerID string, descriptions []string) ([]*models.Task, error)
}
