package flow

import (
	"fmt"
	"strings"

	"surveyassist/internal/definition"
	"surveyassist/internal/model"
)

// Fixed parts of synthesized follow-up questions
const (
	FollowupTitle      = "Survey Assist"
	FollowupButtonText = "Save and continue"
	NoneOfTheAbove     = "None of the above"
)

var candidatePrompts = map[string]string{
	model.ClassificationSIC: "Which of these best describes your organisation's activities?",
	model.ClassificationSOC: "Which of these best describes your job?",
}

// synthesize builds a follow-up from an ambiguous classification result.
// Open follow-up text wins over candidates; with neither there is nothing to ask.
func (e *Engine) synthesize(sess *model.AnswerSession, rule definition.Rule, result *model.ClassificationResult, interaction int) (model.DynamicFollowup, bool) {
	text := strings.TrimSpace(result.FollowUpText)
	labels := candidateLabels(result.Candidates)
	if text == "" && len(labels) == 0 {
		return model.DynamicFollowup{}, false
	}

	id, n := e.nextFollowupID(sess)
	q := model.Question{
		QuestionID:   id,
		QuestionName: fmt.Sprintf("survey_assist_followup_%d", n),
		ResponseName: fmt.Sprintf("survey-assist-followup-%d", n),
		Title:        FollowupTitle,
		ButtonText:   FollowupButtonText,
	}
	if text != "" {
		q.QuestionText = text
		q.ResponseType = model.ResponseText
	} else {
		q.QuestionText = candidatePrompts[rule.Kind()]
		q.ResponseType = model.ResponseRadio
		for i, label := range append(labels, NoneOfTheAbove) {
			q.ResponseOptions = append(q.ResponseOptions, model.ResponseOption{
				ID:    fmt.Sprintf("%s-%d", id, i+1),
				Label: model.OptionLabel{Text: label},
				Value: label,
			})
		}
	}

	sess.Interactions[interaction].FollowupQuestionID = q.QuestionID
	sess.Interactions[interaction].FollowupQuestionName = q.QuestionName
	sess.Interactions[interaction].FollowupQuestionText = q.QuestionText
	return model.DynamicFollowup{
		Question:         q,
		Kind:             rule.Kind(),
		RuleIndex:        rule.Index,
		AnchorID:         rule.AfterQuestionID,
		InteractionIndex: interaction,
	}, true
}

// nextFollowupID issues f1, f2, ... skipping ids already taken by the definition
func (e *Engine) nextFollowupID(sess *model.AnswerSession) (string, int) {
	consentID := e.def.ConsentQuestion().QuestionID
	for {
		sess.FollowupSeq++
		id := fmt.Sprintf("f%d", sess.FollowupSeq)
		if _, taken := e.def.Question(id); taken || id == consentID {
			continue
		}
		return id, sess.FollowupSeq
	}
}

func candidateLabels(candidates []model.Candidate) []string {
	seen := make(map[string]bool, len(candidates))
	var labels []string
	for _, c := range candidates {
		label := strings.TrimSpace(c.Label)
		if label == "" || strings.EqualFold(label, NoneOfTheAbove) || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}
