package models

import (
	"time"
)

// Note is a piece of text captured by an owner, together with the metadata
// the classifier extracted from it.
type Note struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Content     string    `json:"content"`
	CategoryID  *string   `json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	Themes      []string  `json:"themes"`
	Sentiment   Sentiment `json:"sentiment,omitempty"`
	Mood        string    `json:"mood,omitempty"`
	ActionItems []string  `json:"action_items"`
	Summary     string    `json:"summary,omitempty"`
	Tasks       []*Task   `json:"tasks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task is an action item extracted from a note.
type Task struct {
	ID          string    `json:"id"`
	NoteID      string    `json:"note_id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}
