package bot

import (
	"fmt"
	"strings"

	"github.com/xaenox/iforgot/internal/models"
	"github.com/xaenox/iforgot/internal/notes"
)

const previewLength = 80

var moodEmoji = map[string]string{
	"happy":       "😊",
	"excited":     "🤩",
	"calm":        "😌",
	"grateful":    "🙏",
	"hopeful":     "🌱",
	"proud":       "💪",
	"curious":     "🤔",
	"focused":     "🎯",
	"neutral":     "😐",
	"tired":       "😴",
	"anxious":     "😰",
	"stressed":    "😫",
	"overwhelmed": "🌊",
	"frustrated":  "😤",
	"angry":       "😠",
	"sad":         "😢",
}

// emojiFor picks an emoji for a free-form mood such as "quietly hopeful",
// falling back to the sentiment.
func emojiFor(mood string, sentiment models.Sentiment) string {
	for _, word := range strings.Fields(strings.ToLower(mood)) {
		if e, ok := moodEmoji[strings.Trim(word, ",.!")]; ok {
			return e
		}
	}
	switch sentiment {
	case models.SentimentPositive:
		return "🙂"
	case models.SentimentNegative:
		return "🙁"
	default:
		return "📝"
	}
}

// escapeMarkdown escapes text for Telegram's MarkdownV2 parse mode.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// escapeCode escapes text placed inside an inline code span.
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}

func hashtag(s string) string {
	return escapeMarkdown("#" + strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewLength {
		return s
	}
	return string(runes[:previewLength-1]) + "…"
}

func formatCreated(res *notes.CreateResult) string {
	var b strings.Builder
	note, analysis := res.Note, res.Analysis

	b.WriteString("📝 *Note saved*\n")
	if res.Skipped {
		b.WriteString(escapeMarkdown("AI analysis is not configured, so the note was saved as is.") + "\n")
		fmt.Fprintf(&b, "\nID: `%s`", escapeCode(note.ID))
		return b.String()
	}

	if analysis.Mood != "" {
		fmt.Fprintf(&b, "%s *Mood:* %s\n", emojiFor(analysis.Mood, analysis.Sentiment), escapeMarkdown(analysis.Mood))
	}
	if len(analysis.Themes) > 0 {
		tags := make([]string, len(analysis.Themes))
		for i, theme := range analysis.Themes {
			tags[i] = hashtag(theme)
		}
		fmt.Fprintf(&b, "*Themes:* %s\n", strings.Join(tags, " "))
	}
	if analysis.Summary != "" {
		fmt.Fprintf(&b, "*Summary:* %s\n", escapeMarkdown(analysis.Summary))
	}
	if len(analysis.ActionItems) > 0 {
		b.WriteString("\n*Tasks:*\n")
		for _, item := range analysis.ActionItems {
			fmt.Fprintf(&b, "• %s\n", escapeMarkdown(item))
		}
	}

	b.WriteString("\n")
	switch {
	case res.Decision.AutoAssigned && note.Category != nil:
		fmt.Fprintf(&b, "📂 Filed under *%s*\n", escapeMarkdown(note.Category.Name))
	case res.Decision.RequiresConfirmation:
		name := analysis.Category.Name
		fmt.Fprintf(&b, "📂 Suggested category: *%s* %s\n",
			escapeMarkdown(name),
			escapeMarkdown(fmt.Sprintf("(%.0f%% sure)", analysis.Category.Confidence*100)))
		fmt.Fprintf(&b, "Confirm with `/assign %s %s`\n", escapeCode(note.ID), escapeCode(name))
	}

	fmt.Fprintf(&b, "ID: `%s`", escapeCode(note.ID))
	return b.String()
}

func formatNotes(list []*models.Note) string {
	if len(list) == 0 {
		return escapeMarkdown("You don't have any notes yet.")
	}

	var b strings.Builder
	b.WriteString("*Your recent notes:*\n\n")
	for _, note := range list {
		fmt.Fprintf(&b, "%s %s\n", emojiFor(note.Mood, note.Sentiment), escapeMarkdown(preview(note.Content)))
		if note.Category != nil {
			fmt.Fprintf(&b, "📂 %s\n", escapeMarkdown(note.Category.Name))
		}
		fmt.Fprintf(&b, "`%s`\n\n", escapeCode(note.ID))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCategories(list []*models.Category) string {
	if len(list) == 0 {
		return escapeMarkdown("You don't have any categories yet.")
	}

	var b strings.Builder
	b.WriteString("*Your categories:*\n")
	for _, category := range list {
		b.WriteString(hashtag(category.Name) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
