package notes

import (
	"context"
	"errors"

	"github.com/xaenox/iforgot/internal/classifier"
	"github.com/xaenox/iforgot/internal/models"
	"github.com/xaenox/iforgot/internal/storage"
)

var (
	ErrMockClassifier = errors.New("classifier unreachable")
	ErrMockStorage    = errors.New("mock storage error")
)

// MockClassifier implements classifier.Classifier for testing
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, req classifier.Request) (*models.Judgment, error)
	CallCount    int
	LastRequest  classifier.Request
}

func (m *MockClassifier) Classify(ctx context.Context, req classifier.Request) (*models.Judgment, error) {
	m.CallCount++
	m.LastRequest = req
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, req)
	}
	return nil, ErrMockClassifier
}

// judging returns a classifier that always answers with the given category
// judgment and action items.
func judging(action models.CategoryAction, name string, confidence float64, actionItems ...string) *MockClassifier {
	return &MockClassifier{
		ClassifyFunc: func(ctx context.Context, req classifier.Request) (*models.Judgment, error) {
			return &models.Judgment{
				Themes:      []string{"errands"},
				Sentiment:   models.SentimentNeutral,
				ActionItems: actionItems,
				Category: models.CategoryJudgment{
					Action:     action,
					Name:       name,
					Confidence: confidence,
				},
			}, nil
		},
	}
}

// MockStore wraps the in-memory store and lets tests inject failures and
// count category writes.
type MockStore struct {
	*storage.MemoryStorage

	InsertNoteErr         error
	ListCategoriesErr     error
	InsertTasksErr        error
	UpdateNoteCategoryErr error

	UpdateNoteCategoryCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{MemoryStorage: storage.NewMemoryStorage()}
}

func (m *MockStore) InsertNote(ctx context.Context, note *models.Note) error {
	if m.InsertNoteErr != nil {
		return m.InsertNoteErr
	}
	return m.MemoryStorage.InsertNote(ctx, note)
}

func (m *MockStore) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	if m.ListCategoriesErr != nil {
		return nil, m.ListCategoriesErr
	}
	return m.MemoryStorage.ListCategories(ctx, ownerID)
}

func (m *MockStore) InsertTasks(ctx context.Context, noteID, ownerID string, descriptions []string) ([]*models.Task, error) {
	if m.InsertTasksErr != nil {
		return nil, m.InsertTasksErr
	}
	return m.MemoryStorage.InsertTasks(ctx, noteID, ownerID, descriptions)
}

func (m *MockStore) UpdateNoteCategory(ctx context.Context, noteID, categoryID string) error {
	m.UpdateNoteCategoryCalls++
	if m.UpdateNoteCategoryErr != nil {
		return m.UpdateNoteCategoryErr
	}
	return m.MemoryStorage.UpdateNoteCategory(ctx, noteID, categoryID)
}
