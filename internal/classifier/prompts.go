package classifier

import (
	"fmt"
	"sort"
	"strings"
)

// Template is a named prompt variant.
type Template struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	instruction string
	fields      string
}

const DefaultTemplate = "default"

const baseFields = `  "themes": ["theme1", "theme2"],
  "sentiment": "positive" | "negative" | "neutral",
  "mood": "one or two words describing the writer's mood",
  "action_items": ["clear, actionable task"],
  "category": {
    "action": "assign" | "create",
    "name": "Category Name",
    "confidence": 0.0-1.0
  },
  "summary": "one sentence summary",
  "entities": {
    "people": [],
    "places": [],
    "dates": [],
    "tags": []
  }`

var templates = map[string]Template{
	DefaultTemplate: {
		Key:         DefaultTemplate,
		Name:        "Default",
		Description: "Themes, mood, tasks, category, summary and entities",
		instruction: `You help someone with ADHD keep their thoughts organised. Read the note and describe it.
Keep themes short (2-3, never more than 4). Only list action items the note actually asks for.`,
		fields: baseFields,
	},
	"moodAndCategory": {
		Key:         "moodAndCategory",
		Name:        "Mood & Category",
		Description: "Detects mood and picks a simple category",
		instruction: `Read this journal-style note kindly and name the writer's mood and a simple category.`,
		fields:      baseFields,
	},
	"taskFocused": {
		Key:         "taskFocused",
		Name:        "Task Extraction",
		Description: "Extracts actionable tasks and priorities",
		instruction: `Pull every actionable task out of this note. Split compound items into separate tasks.`,
		fields:      baseFields,
	},
	"journaling": {
		Key:         "journaling",
		Name:        "Personal Journal",
		Description: "Empathetic analysis for personal journaling",
		instruction: `This is a personal journal entry. Describe emotional themes without judgement and suggest self-care follow-ups as action items.`,
		fields:      baseFields,
	},
	"meetingNotes": {
		Key:         "meetingNotes",
		Name:        "Meeting Notes",
		Description: "Structured analysis for meetings and discussions",
		instruction: `These are meeting notes. List topics as themes, follow-ups (with owners when named) as action items, and attendees as people.`,
		fields:      baseFields,
	},
	"quickCapture": {
		Key:         "quickCapture",
		Name:        "Quick Capture",
		Description: "Fast, minimal analysis for quick thoughts",
		instruction: `Give a quick, minimal read of this thought: one theme, no summary unless obvious.`,
		fields:      baseFields,
	},
}

// Templates lists the available prompt templates ordered by key, with the
// default first.
func Templates() []Template {
	list := make([]Template, 0, len(templates))
	for _, t := range templates {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Key, list[j].Key
		if a == DefaultTemplate {
			return b != DefaultTemplate
		}
		if b == DefaultTemplate {
			return false
		}
		return a < b
	})
	return list
}

// HasTemplate reports whether key names a known template. The empty key is
// the default.
func HasTemplate(key string) bool {
	if key == "" {
		return true
	}
	_, ok := templates[key]
	return ok
}

// BuildPrompt renders the prompt for req. Unknown template keys fall back to
// the default template.
func BuildPrompt(req Request) string {
	t, ok := templates[req.Template]
	if !ok {
		t = templates[DefaultTemplate]
	}

	existing := "None"
	if len(req.Categories) > 0 {
		existing = strings.Join(req.Categories, ", ")
	}

	return fmt.Sprintf(`%s

Existing categories: %s

Note: %q

Return ONLY a JSON object with this structure:
{
%s
}

Category rules:
- Use "assign" with the exact existing name when the note clearly belongs to an existing category (confidence above 0.8).
- Otherwise use "create" and propose a short new category name.
- Return only the JSON object, no other text.`, t.instruction, existing, req.Content, t.fields)
}
