package models

// Sentiment is the overall tone the classifier detected in a note.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the known sentiments.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// CategoryAction is what the classifier proposes to do with a note's category.
type CategoryAction string

const (
	CategoryAssign CategoryAction = "assign"
	CategoryCreate CategoryAction = "create"
)

// CategoryJudgment is the classifier's category suggestion for a note.
type CategoryJudgment struct {
	Action     CategoryAction `json:"action"`
	Name       string         `json:"name"`
	Confidence float64        `json:"confidence"`
}

// Entities are the people, places, dates and tags mentioned in a note.
type Entities struct {
	People []string `json:"people,omitempty"`
	Places []string `json:"places,omitempty"`
	Dates  []string `json:"dates,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Judgment is the structured analysis of a single note. It is produced fresh
// for every request and never persisted as a whole.
type Judgment struct {
	Themes      []string         `json:"themes"`
	Sentiment   Sentiment        `json:"sentiment"`
	Mood        string           `json:"mood,omitempty"`
	ActionItems []string         `json:"action_items"`
	Category    CategoryJudgment `json:"category"`
	Summary     string           `json:"summary,omitempty"`
	Entities    *Entities        `json:"entities,omitempty"`
}
