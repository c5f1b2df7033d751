// Package categorize decides what happens to a note's category after the
// classifier has looked at it.
package categorize

import (
	"github.com/xaenox/iforgot/internal/models"
)

// AutoAssignThreshold is the confidence a judgment must exceed before a note
// is placed in an existing category without asking the owner.
const AutoAssignThreshold = 0.8

// Action is the follow-up the caller is told about.
type Action string

const (
	ActionAssign Action = "assign"
	ActionCreate Action = "create"
	ActionNone   Action = "none"
)

// Decision is the outcome of Decide. CategoryID is only set when the note
// should be auto-assigned.
type Decision struct {
	CategoryID           string `json:"categoryId,omitempty"`
	AutoAssigned         bool   `json:"autoAssigned"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	SuggestedAction      Action `json:"suggestedAction"`
}

// Decide applies the assignment policy to a judgment. Rules are evaluated in
// order and the first match wins:
//
//  1. assign with confidence > 0.8 and an existing category of that exact
//     name: auto-assign.
//  2. create, or confidence <= 0.8: defer to the owner.
//  3. anything else: no action.
//
// A confidence of exactly 0.8 therefore always defers. Names are compared
// case-sensitively.
func Decide(judgment models.CategoryJudgment, existing []*models.Category) Decision {
	if judgment.Action == models.CategoryAssign && judgment.Confidence > AutoAssignThreshold {
		if category := findByName(existing, judgment.Name); category != nil {
			return Decision{
				CategoryID:      category.ID,
				AutoAssigned:    true,
				SuggestedAction: ActionAssign,
			}
		}
	}

	if judgment.Action == models.CategoryCreate || judgment.Confidence <= AutoAssignThreshold {
		return Decision{
			RequiresConfirmation: true,
			SuggestedAction:      ActionCreate,
		}
	}

	return Skipped()
}

// Skipped is the decision reported when no category action is taken, for
// example when classification did not run.
func Skipped() Decision {
	return Decision{SuggestedAction: ActionNone}
}

func findByName(categories []*models.Category, name string) *models.Category {
	for _, c := range categories {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}
