package definition

import (
	"fmt"

	"surveyassist/internal/model"
)

// Action is the closed set of things an interaction rule can do.
// New interaction kinds are added as new Action implementations here and
// as a new case wherever actions are dispatched.
type Action interface {
	interactionType() string
}

// LookupClassification asks the classification gateway to classify the
// answers that feed Kind.
type LookupClassification struct {
	Kind string
}

func (LookupClassification) interactionType() string {
	return model.InteractionLookupClassification
}

// Rule is a validated interaction rule
type Rule struct {
	Index           int // position in survey_assist.interactions
	AfterQuestionID string
	Action          Action
	FollowUp        model.FollowUpPolicy
}

// Kind returns the classification kind for lookup rules, "" otherwise
func (r Rule) Kind() string {
	if a, ok := r.Action.(LookupClassification); ok {
		return a.Kind
	}
	return ""
}

var knownKinds = map[string]bool{
	model.ClassificationSIC: true,
	model.ClassificationSOC: true,
}

// IsKnownKind reports whether kind is a classification kind the gateway understands
func IsKnownKind(kind string) bool {
	return knownKinds[kind]
}

func actionFor(rule model.InteractionRule) (Action, error) {
	switch rule.Type {
	case model.InteractionLookupClassification:
		if !IsKnownKind(rule.Param) {
			return nil, fmt.Errorf("unknown classification kind %q", rule.Param)
		}
		return LookupClassification{Kind: rule.Param}, nil
	default:
		return nil, fmt.Errorf("unknown interaction type %q", rule.Type)
	}
}
