package flow

import (
	"fmt"
	"strconv"
	"strings"

	"surveyassist/internal/model"
)

// Placeholders substituted into question text
const (
	PlaceholderText     = "PLACEHOLDER_TEXT"
	PlaceholderFollowup = "PLACEHOLDER_FOLLOWUP"
	PlaceholderReason   = "PLACEHOLDER_REASON"
)

var numberWords = []string{"zero", "one", "two", "three", "four", "five", "six"}

func numberToWord(n int) string {
	if n >= 0 && n < len(numberWords) {
		return numberWords[n]
	}
	return strconv.Itoa(n)
}

// followupPhrase describes the follow-up budget in the consent prompt
func followupPhrase(max int) string {
	if max == 1 {
		return "one additional question"
	}
	return fmt.Sprintf("a maximum of %s additional questions", numberToWord(max))
}

func (e *Engine) renderStatic(sess *model.AnswerSession, q model.Question) model.Question {
	if src, ok := e.def.PlaceholderSource(q.QuestionID); ok {
		q.QuestionText = strings.ReplaceAll(q.QuestionText, PlaceholderText, sess.Answers[src])
	}
	return q
}

func (e *Engine) renderConsent() model.Question {
	q := e.def.ConsentQuestion()
	r := strings.NewReplacer(
		PlaceholderFollowup, followupPhrase(e.def.MaxFollowup()),
		PlaceholderReason, e.def.ConsentConfig().PlaceholderReason,
	)
	q.QuestionText = r.Replace(q.QuestionText)
	return q
}
