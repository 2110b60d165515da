package gateway

import (
	"context"
	"strings"

	"surveyassist/internal/model"
)

// minConfidentWords is how many words the mock needs before it commits to a code
const minConfidentWords = 8

type mockEntry struct {
	keyword string
	code    string
	label   string
}

var mockCodes = map[string][]mockEntry{
	model.ClassificationSIC: {
		{"bake", "10710", "Manufacture of bread; manufacture of fresh pastry goods and cakes"},
		{"bread", "47240", "Retail sale of bread, cakes and confectionery in specialised stores"},
		{"school", "85200", "Primary education"},
		{"kitchen", "56290", "Other food services"},
		{"hospital", "86101", "Hospital activities"},
	},
	model.ClassificationSOC: {
		{"bake", "5432", "Bakers and flour confectioners"},
		{"kitchen", "9263", "Kitchen and catering assistants"},
		{"teach", "2314", "Secondary education teaching professionals"},
		{"nurse", "2231", "Nurses"},
	},
}

var mockClarifications = map[string]string{
	model.ClassificationSIC: "Please describe the main activity of your organisation in more detail.",
	model.ClassificationSOC: "Please describe your main job and the tasks you do in more detail.",
}

// Mock is a deterministic classifier used when no gateway is configured
type Mock struct{}

// NewMock creates the mock classifier
func NewMock() *Mock {
	return &Mock{}
}

// Lookup matches keywords against a small built-in code table. Short or
// unmatched inputs come back ambiguous with a clarifying question.
func (m *Mock) Lookup(ctx context.Context, kind string, fields []model.InputField) (*model.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &GatewayError{Kind: ErrTimeout, Err: err}
	}

	var parts []string
	for _, f := range fields {
		parts = append(parts, f.Value)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	result := &model.ClassificationResult{Kind: kind}
	for _, entry := range mockCodes[kind] {
		if strings.Contains(text, entry.keyword) {
			result.Candidates = append(result.Candidates, model.Candidate{
				Code:       entry.code,
				Label:      entry.label,
				Confidence: 0.5,
			})
		}
	}

	if len(result.Candidates) == 1 && len(strings.Fields(text)) >= minConfidentWords {
		result.Candidates[0].Confidence = 0.9
		result.Code = result.Candidates[0].Code
		result.Description = result.Candidates[0].Label
		result.Reasoning = "Mock classification based on keyword match."
		return result, nil
	}

	result.Ambiguous = true
	result.Reasoning = "Mock classification could not settle on a single code."
	if len(result.Candidates) == 0 {
		result.FollowUpText = mockClarifications[kind]
	}
	return result, nil
}
