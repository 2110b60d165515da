package flow

import (
	"fmt"
	"strings"

	"surveyassist/internal/model"
)

// normalizeAnswer returns the value to record, or a rejection reason.
// Closed-choice values must match an option exactly; free text is trimmed
// and may not be empty.
func normalizeAnswer(q *model.Question, raw string) (string, string) {
	if q.ResponseType.IsClosedChoice() {
		if !q.HasOption(raw) {
			return "", fmt.Sprintf("%q is not one of the allowed options", raw)
		}
		return raw, ""
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", "an answer is required"
	}
	return value, ""
}
