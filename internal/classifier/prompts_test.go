package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplates_DefaultFirst(t *testing.T) {
	list := Templates()

	assert.Len(t, list, 6)
	assert.Equal(t, DefaultTemplate, list[0].Key)
	for i := 2; i < len(list); i++ {
		assert.Less(t, list[i-1].Key, list[i].Key)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{Content: "call the dentist", Categories: []string{"Health", "Work"}})

	assert.Contains(t, p, "Existing categories: Health, Work")
	assert.Contains(t, p, `"call the dentist"`)
	assert.Contains(t, p, `"action": "assign" | "create"`)

	empty := BuildPrompt(Request{Content: "x", Template: "nope"})
	assert.Contains(t, empty, "Existing categories: None")
	assert.Contains(t, empty, templates[DefaultTemplate].instruction)
}

func TestHasTemplate(t *testing.T) {
	assert.True(t, HasTemplate(""))
	assert.True(t, HasTemplate("meetingNotes"))
	assert.False(t, HasTemplate("poetry"))
}
