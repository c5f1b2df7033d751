package classifier

import (
	"context"
	"errors"

	"github.com/xaenox/iforgot/internal/models"
)

// ErrNotConfigured is returned by the classifier used when no provider
// credentials are available.
var ErrNotConfigured = errors.New("no classifier API key configured")

// Request is the input to a classification.
type Request struct {
	Content    string
	Categories []string // names of the owner's existing categories
	Template   string   // prompt template key, empty for the default
}

type Classifier interface {
	Classify(ctx context.Context, req Request) (*models.Judgment, error)
}

// Default is the judgment callers substitute when classification is not
// possible. A confidence of 0 marks the analysis as skipped.
func Default() *models.Judgment {
	return &models.Judgment{
		Themes:      []string{},
		Sentiment:   models.SentimentNeutral,
		ActionItems: []string{},
		Category: models.CategoryJudgment{
			Action:     models.CategoryCreate,
			Name:       UncategorizedName,
			Confidence: 0,
		},
	}
}

// IsSkipped reports whether j is the sentinel produced by Default.
func IsSkipped(j *models.Judgment) bool {
	return j == nil || j.Category.Confidence == 0
}

// Unconfigured always fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Classify(ctx context.Context, req Request) (*models.Judgment, error) {
	return nil, ErrNotConfigured
}
