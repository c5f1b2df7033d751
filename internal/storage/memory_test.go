package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/iforgot/internal/models"
)

// fixedClock returns a clock that advances by one second per call.
func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestMemoryStorage() *MemoryStorage {
	s := NewMemoryStorage()
	s.now = fixedClock()
	return s
}

func TestMemoryStorage_InsertAndGetNote(t *testing.T) {
	ctx := context.Background()
	s := newTestMemoryStorage()

	note := &models.Note{UserID: "u1", Content: "buy milk", Themes: []string{"shopping"}}
	require.NoError(t, s.InsertNote(ctx, note))
	require.NotEmpty(t, note.ID)
	require.False(t, note.CreatedAt.IsZero())

	got, err := s.GetNote(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Content)
	assert.Equal(t, []string{"shopping"}, got.Themes)

	_, err = s.GetNote(ctx, "someone-else", note.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_ListNotesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestMemoryStorage()

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, s.InsertNote(ctx, &models.Note{UserID: "u1", Content: content}))
	}
	require.NoError(t, s.InsertNote(ctx, &models.Note{UserID: "u2", Content: "other owner"}))

	notes, err := s.ListNotes(ctx, "u1", NoteFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "third", notes[0].Content)
	assert.Equal(t, "second", notes[1].Content)
	assert.Equal(t, "first", notes[2].Content)

	limited, err := s.ListNotes(ctx, "u1", NoteFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryStorage_ListNotesStableWithEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	for _, content := range []string{"a", "b", "c"} {
		require.NoError(t, s.InsertNote(ctx, &models.Note{UserID: "u1", Content: content}))
	}

	first, err := s.ListNotes(ctx, "u1", NoteFilter{})
	require.NoError(t, err)
	second, err := s.ListNotes(ctx, "u1", NoteFilter{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "c", first[0].Content)
}

func TestMemoryStorage_CategoryFilterAndJoin(t *testing.T) {
	ctx := context.Background()
	s := newTestMemoryStorage()

	category := &models.Category{UserID: "u1", Name: "Groceries"}
	require.NoError(t, s.InsertCategory(ctx, category))

	tagged := &models.Note{UserID: "u1", Content: "eggs"}
	require.NoError(t, s.InsertNote(ctx, tagged))
	require.NoError(t, s.InsertNote(ctx, &models.Note{UserID: "u1", Content: "untagged"}))
	require.NoError(t, s.UpdateNoteCategory(ctx, tagged.ID, category.ID))

	_, err := s.InsertTasks(ctx, tagged.ID, "u1", []string{"buy eggs", "check fridge"})
	require.NoError(t, err)

	notes, err := s.ListNotes(ctx, "u1", NoteFilter{CategoryID: category.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)

	n := notes[0]
	require.NotNil(t, n.CategoryID)
	assert.Equal(t, category.ID, *n.CategoryID)
	require.NotNil(t, n.Category)
	assert.Equal(t, "Groceries", n.Category.Name)
	require.Len(t, n.Tasks, 2)
	assert.Equal(t, "buy eggs", n.Tasks[0].Description)
	assert.False(t, n.Tasks[0].Completed)
}

func TestMemoryStorage_UpdateNoteContentChecksOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestMemoryStorage()

	note := &models.Note{UserID: "u1", Content: "draft"}
	require.NoError(t, s.InsertNote(ctx, note))

	_, err := s.UpdateNoteContent(ctx, "u2", note.ID, "hijacked")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.UpdateNoteContent(ctx, "u1", note.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))
}

func TestMemoryStorage_DeleteNoteCascadesTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestMemoryStorage()

	note := &models.Note{UserID: "u1", Content: "call mum"}
	require.NoError(t, s.InsertNote(ctx, note))
	_, err := s.InsertTasks(ctx, note.ID, "u1", []string{"call mum"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteNote(ctx, "u2", note.ID), ErrNotFound)
	require.NoError(t, s.DeleteNote(ctx, "u1", note.ID))

	_, err = s.GetNote(ctx, "u1", note.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.tasks[note.ID])
}

func TestMemoryStorage_ReturnedNotesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestMemoryStorage()

	note := &models.Note{UserID: "u1", Content: "original", Themes: []string{"a"}}
	require.NoError(t, s.InsertNote(ctx, note))
	note.Themes[0] = "mutated"

	got, err := s.GetNote(ctx, "u1", note.ID)
	require.NoError(t, err)
	got.Content = "changed"

	again, err := s.GetNote(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Content)
	assert.Equal(t, []string{"a"}, again.Themes)
}

func TestMemoryStorage_ListCategoriesPerOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestMemoryStorage()

	require.NoError(t, s.InsertCategory(ctx, &models.Category{UserID: "u1", Name: "Work"}))
	require.NoError(t, s.InsertCategory(ctx, &models.Category{UserID: "u1", Name: "Home"}))
	require.NoError(t, s.InsertCategory(ctx, &models.Category{UserID: "u2", Name: "Travel"}))

	categories, err := s.ListCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Home"}, models.CategoryNames(categories))
}

func TestMemoryStorage_InsertTasksUnknownNote(t *testing.T) {
	_, err := newTestMemoryStorage().InsertTasks(context.Background(), "missing", "u1", []string{"x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
