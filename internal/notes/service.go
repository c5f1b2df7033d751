// Package notes wires the classifier, the categorisation policy and the
// note store together into the operations the API and the bot expose.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xaenox/iforgot/internal/categorize"
	"github.com/xaenox/iforgot/internal/classifier"
	"github.com/xaenox/iforgot/internal/models"
	"github.com/xaenox/iforgot/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidInput wraps validation failures on service arguments.
var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	store      storage.Storage
	classifier classifier.Classifier
	logger     *zap.Logger
}

func NewService(store storage.Storage, clf classifier.Classifier, logger *zap.Logger) *Service {
	if clf == nil {
		clf = classifier.Unconfigured{}
	}
	return &Service{
		store:      store,
		classifier: clf,
		logger:     logger,
	}
}

// CreateResult describes everything that happened while creating a note.
type CreateResult struct {
	Note     *models.Note
	Analysis *models.Judgment
	Decision categorize.Decision
	// Skipped is set when the classifier could not be used and Analysis is
	// the default judgment.
	Skipped bool
}

// CreateNote classifies content, stores it, applies the category policy and
// stores any action items as tasks. Each step feeds the next, so they run in
// order. Classifier failures degrade to classifier.Default; failing to store
// tasks is logged and does not fail the call.
func (s *Service) CreateNote(ctx context.Context, ownerID, content, template string) (*CreateResult, error) {
	if err := requireFields(ownerID, "ownerId", content, "content"); err != nil {
		return nil, err
	}

	categories, err := s.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}

	analysis := s.classify(ctx, classifier.Request{
		Content:    content,
		Categories: models.CategoryNames(categories),
		Template:   template,
	})
	skipped := classifier.IsSkipped(analysis)

	note := &models.Note{
		UserID:      ownerID,
		Content:     content,
		Themes:      analysis.Themes,
		Sentiment:   analysis.Sentiment,
		Mood:        analysis.Mood,
		ActionItems: analysis.ActionItems,
		Summary:     analysis.Summary,
	}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}

	decision := categorize.Skipped()
	if !skipped {
		decision = categorize.Decide(analysis.Category, categories)
		if err := s.applyDecision(ctx, note, decision, categories); err != nil {
			return nil, err
		}
	}

	if len(analysis.ActionItems) > 0 {
		tasks, err := s.store.InsertTasks(ctx, note.ID, ownerID, analysis.ActionItems)
		if err != nil {
			s.logger.Error("Failed to save tasks",
				zap.Error(err),
				zap.String("note_id", note.ID),
				zap.String("owner_id", ownerID),
				zap.Int("count", len(analysis.ActionItems)))
		} else {
			note.Tasks = tasks
		}
	}

	s.logger.Info("Created note",
		zap.String("note_id", note.ID),
		zap.String("owner_id", ownerID),
		zap.Bool("ai_skipped", skipped),
		zap.String("suggested_action", string(decision.SuggestedAction)),
		zap.Bool("auto_assigned", decision.AutoAssigned))

	return &CreateResult{
		Note:     note,
		Analysis: analysis,
		Decision: decision,
		Skipped:  skipped,
	}, nil
}

// SaveNote stores content as-is, without classification.
func (s *Service) SaveNote(ctx context.Context, ownerID, content string) (*models.Note, error) {
	if err := requireFields(ownerID, "ownerId", content, "content"); err != nil {
		return nil, err
	}

	note := &models.Note{
		UserID:      ownerID,
		Content:     content,
		Themes:      []string{},
		ActionItems: []string{},
	}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

func (s *Service) GetNote(ctx context.Context, ownerID, noteID string) (*models.Note, error) {
	if err := requireFields(ownerID, "ownerId", noteID, "noteId"); err != nil {
		return nil, err
	}
	return s.store.GetNote(ctx, ownerID, noteID)
}

func (s *Service) ListNotes(ctx context.Context, ownerID string, filter storage.NoteFilter) ([]*models.Note, error) {
	if err := requireFields(ownerID, "ownerId"); err != nil {
		return nil, err
	}
	return s.store.ListNotes(ctx, ownerID, filter)
}

func (s *Service) UpdateNote(ctx context.Context, ownerID, noteID, content string) (*models.Note, error) {
	if err := requireFields(ownerID, "ownerId", noteID, "noteId", content, "content"); err != nil {
		return nil, err
	}
	return s.store.UpdateNoteContent(ctx, ownerID, noteID, content)
}

func (s *Service) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	if err := requireFields(ownerID, "ownerId", noteID, "noteId"); err != nil {
		return err
	}
	return s.store.DeleteNote(ctx, ownerID, noteID)
}

func (s *Service) classify(ctx context.Context, req classifier.Request) *models.Judgment {
	analysis, err := s.classifier.Classify(ctx, req)
	if err != nil {
		if errors.Is(err, classifier.ErrNotConfigured) {
			s.logger.Debug("Classifier not configured, skipping analysis")
		} else {
			s.logger.Warn("Classification failed, using default analysis", zap.Error(err))
		}
		return classifier.Default()
	}
	return analysis
}

// requireFields checks (value, field) pairs and reports the first empty field.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i]) == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidInput, pairs[i+1])
		}
	}
	return nil
}
