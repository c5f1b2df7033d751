package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xaenox/iforgot/internal/models"
)

const (
	// UncategorizedName is used when the model does not name a category.
	UncategorizedName = "Uncategorized"

	maxThemes         = 4
	defaultConfidence = 0.5
)

var errNoJSON = errors.New("no JSON object in response")

type rawJudgment struct {
	Themes      []string         `json:"themes"`
	Sentiment   string           `json:"sentiment"`
	Mood        string           `json:"mood"`
	ActionItems []string         `json:"action_items"`
	Summary     string           `json:"summary"`
	Entities    *models.Entities `json:"entities"`
	Category    *struct {
		Action     string   `json:"action"`
		Name       string   `json:"name"`
		Confidence *float64 `json:"confidence"`
	} `json:"category"`
}

// ParseJudgment extracts the JSON object from a model reply and fills in
// defaults for anything missing. Replies wrapped in prose or code fences are
// accepted.
func ParseJudgment(text string) (*models.Judgment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, errNoJSON
	}

	var raw rawJudgment
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse judgment JSON: %w", err)
	}

	j := &models.Judgment{
		Themes:      cleanStrings(raw.Themes),
		Sentiment:   models.Sentiment(strings.ToLower(strings.TrimSpace(raw.Sentiment))),
		Mood:        strings.TrimSpace(raw.Mood),
		ActionItems: cleanStrings(raw.ActionItems),
		Summary:     strings.TrimSpace(raw.Summary),
		Entities:    raw.Entities,
		Category: models.CategoryJudgment{
			Action:     models.CategoryCreate,
			Name:       UncategorizedName,
			Confidence: defaultConfidence,
		},
	}
	if len(j.Themes) > maxThemes {
		j.Themes = j.Themes[:maxThemes]
	}
	if !j.Sentiment.Valid() {
		j.Sentiment = models.SentimentNeutral
	}

	if c := raw.Category; c != nil {
		if models.CategoryAction(c.Action) == models.CategoryAssign {
			j.Category.Action = models.CategoryAssign
		}
		if name := strings.TrimSpace(c.Name); name != "" {
			j.Category.Name = name
		}
		if c.Confidence != nil {
			j.Category.Confidence = clamp(*c.Confidence)
		}
		// 0 is reserved for skipped analyses
		if j.Category.Confidence == 0 {
			j.Category.Confidence = defaultConfidence
		}
	}

	return j, nil
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
