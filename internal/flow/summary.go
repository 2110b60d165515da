package flow

import (
	"strings"

	"surveyassist/internal/model"
)

// Summary lists the answered questions in the order they were answered,
// with the text the respondent actually saw
func (e *Engine) Summary(sess *model.AnswerSession) []model.AnsweredQuestion {
	followups := make(map[string]model.Interaction)
	for _, in := range sess.Interactions {
		if in.FollowupQuestionID != "" {
			followups[in.FollowupQuestionID] = in
		}
	}
	consent := e.def.ConsentQuestion()
	label := strings.TrimSpace(e.def.AssistLabel())

	out := make([]model.AnsweredQuestion, 0, len(sess.History))
	for _, id := range sess.History {
		entry := model.AnsweredQuestion{QuestionID: id, Response: sess.Answers[id]}
		switch in, isFollowup := followups[id]; {
		case isFollowup:
			entry.QuestionName = in.FollowupQuestionName
			entry.QuestionText = withLabel(in.FollowupQuestionText, label)
			entry.ResponseName = strings.ReplaceAll(in.FollowupQuestionName, "_", "-")
			entry.Response = in.FollowupResponse
			entry.AssistGenerated = true
		case consent.QuestionID != "" && id == consent.QuestionID:
			q := e.renderConsent()
			entry.QuestionName = q.QuestionName
			entry.QuestionText = q.QuestionText
			entry.ResponseName = q.ResponseName
			entry.AssistGenerated = true
		default:
			q, ok := e.def.Question(id)
			if !ok {
				continue
			}
			q = e.renderStatic(sess, q)
			entry.QuestionName = q.QuestionName
			entry.QuestionText = q.QuestionText
			entry.ResponseName = q.ResponseName
		}
		out = append(out, entry)
	}
	return out
}

// Result builds the stored record of a completed session
func (e *Engine) Result(sess *model.AnswerSession) *model.SurveyResult {
	res := &model.SurveyResult{
		SessionID:     sess.ID,
		RespondentID:  sess.RespondentID,
		SurveyTitle:   e.def.Title(),
		Answers:       e.Summary(sess),
		Consent:       sess.Consent,
		FollowupCount: sess.FollowupCount,
		Interactions:  append([]model.Interaction(nil), sess.Interactions...),
	}
	if sess.StartedAt != nil {
		res.StartedAt = *sess.StartedAt
	}
	if sess.CompletedAt != nil {
		res.CompletedAt = *sess.CompletedAt
	}
	return res
}

func withLabel(text, label string) string {
	if label == "" {
		return text
	}
	return text + " " + label
}
