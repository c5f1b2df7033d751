package notes

import (
	"context"
	"fmt"

	"github.com/xaenox/iforgot/internal/categorize"
	"github.com/xaenox/iforgot/internal/models"
	"go.uber.org/zap"
)

// applyDecision performs the store mutation a decision calls for. Only an
// auto-assignment writes anything.
func (s *Service) applyDecision(ctx context.Context, note *models.Note, decision categorize.Decision, categories []*models.Category) error {
	if !decision.AutoAssigned {
		return nil
	}

	if err := s.store.UpdateNoteCategory(ctx, note.ID, decision.CategoryID); err != nil {
		return fmt.Errorf("assign category: %w", err)
	}

	id := decision.CategoryID
	note.CategoryID = &id
	for _, c := range categories {
		if c.ID == id {
			copied := *c
			note.Category = &copied
			break
		}
	}
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, ownerID, name string) (*models.Category, error) {
	if err := requireFields(ownerID, "ownerId", name, "name"); err != nil {
		return nil, err
	}

	category := &models.Category{UserID: ownerID, Name: name}
	if err := s.store.InsertCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	if err := requireFields(ownerID, "ownerId"); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, ownerID)
}

// CreateAndAssign creates a category for the owner and puts the note in it.
// The two writes are not atomic: when the assignment fails the new category
// is left in place and returned alongside the error.
func (s *Service) CreateAndAssign(ctx context.Context, ownerID, noteID, name string) (*models.Category, error) {
	if err := requireFields(noteID, "noteId"); err != nil {
		return nil, err
	}

	category, err := s.CreateCategory(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateNoteCategory(ctx, noteID, category.ID); err != nil {
		s.logger.Warn("Category created but not assigned",
			zap.Error(err),
			zap.String("category_id", category.ID),
			zap.String("note_id", noteID))
		return category, fmt.Errorf("assign category: %w", err)
	}

	s.logger.Info("Created and assigned category",
		zap.String("category_id", category.ID),
		zap.String("note_id", noteID),
		zap.String("owner_id", ownerID))

	return category, nil
}
