package flow

import (
	"context"
	"errors"
	"time"

	"surveyassist/internal/definition"
	"surveyassist/internal/gateway"
	"surveyassist/internal/model"
	"surveyassist/internal/sanitize"
)

// afterStatic runs once a static question has been answered
func (e *Engine) afterStatic(ctx context.Context, sess *model.AnswerSession, anchor string) *Step {
	e.releaseQueued(sess, anchor)

	rules := e.def.InteractionsAfter(anchor)
	if len(rules) > 0 && sess.Consent != model.ConsentDenied {
		if e.def.ConsentRequired() && sess.Consent == model.ConsentUnset {
			sess.DeferredAnchor = anchor
			return e.presentConsent(sess)
		}
		e.fireRules(ctx, sess, rules)
	}
	return e.presentNext(sess)
}

func (e *Engine) afterConsent(ctx context.Context, sess *model.AnswerSession, value string) *Step {
	anchor := sess.DeferredAnchor
	sess.DeferredAnchor = ""

	if value == definition.ConsentYes {
		sess.Consent = model.ConsentGranted
		e.logger.Info("survey assist consent granted", "session_id", sess.ID)
		if anchor != "" {
			e.fireRules(ctx, sess, e.def.InteractionsAfter(anchor))
		}
	} else {
		sess.Consent = model.ConsentDenied
		e.logger.Info("survey assist consent denied", "session_id", sess.ID)
		sess.Immediate = nil
		sess.Queued = nil
	}
	return e.presentNext(sess)
}

func (e *Engine) afterFollowup(sess *model.AnswerSession, value string) *Step {
	if fu := sess.Pending; fu != nil && fu.InteractionIndex < len(sess.Interactions) {
		sess.Interactions[fu.InteractionIndex].FollowupResponse = value
	}
	sess.Pending = nil
	return e.presentNext(sess)
}

// releaseQueued moves follow-ups waiting on anchor to the front of the line
func (e *Engine) releaseQueued(sess *model.AnswerSession, anchor string) {
	if len(sess.Queued) == 0 {
		return
	}
	var keep []model.QueuedFollowup
	for _, q := range sess.Queued {
		if q.AfterQuestionID == anchor {
			sess.Immediate = append(sess.Immediate, q.Followup)
		} else {
			keep = append(keep, q)
		}
	}
	sess.Queued = keep
}

func (e *Engine) fireRules(ctx context.Context, sess *model.AnswerSession, rules []definition.Rule) {
	for _, rule := range rules {
		if sess.Consent == model.ConsentDenied {
			return
		}
		switch action := rule.Action.(type) {
		case definition.LookupClassification:
			e.lookupClassification(ctx, sess, rule, action)
		default:
			e.logger.Error("unhandled interaction action", "session_id", sess.ID, "rule", rule.Index)
		}
	}
}

func (e *Engine) lookupClassification(ctx context.Context, sess *model.AnswerSession, rule definition.Rule, action definition.LookupClassification) {
	kind := action.Kind
	record := model.Interaction{
		RuleIndex:       rule.Index,
		Kind:            kind,
		AfterQuestionID: rule.AfterQuestionID,
		Inputs:          e.classificationInputs(sess, kind),
		RequestedAt:     e.now(),
	}
	if len(record.Inputs) == 0 {
		record.ErrorKind = model.ErrorKindNoInputs
		record.Error = "no answers feed this classification"
		sess.Interactions = append(sess.Interactions, record)
		e.logger.Info("skipping classification lookup with no inputs",
			"session_id", sess.ID, "kind", kind, "rule", rule.Index)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	started := time.Now()
	result, err := e.gateway.Lookup(callCtx, kind, record.Inputs)
	cancel()
	elapsed := time.Since(started)
	record.DurationMS = elapsed.Milliseconds()

	if err == nil && result == nil {
		err = &gateway.GatewayError{Kind: gateway.ErrInvalidResponse, Err: errors.New("empty result")}
	}
	if err != nil {
		errKind := gateway.KindOf(err)
		if errKind == "" {
			errKind = gateway.ErrUnavailable
		}
		record.ErrorKind = string(errKind)
		record.Error = err.Error()
		sess.Interactions = append(sess.Interactions, record)
		e.recorder.GatewayCall(kind, string(errKind), elapsed)
		e.logger.Warn("classification gateway failed, continuing without follow-up",
			"session_id", sess.ID, "kind", kind, "error_kind", errKind, "err", err)
		return
	}

	record.Result = result
	index := len(sess.Interactions)
	sess.Interactions = append(sess.Interactions, record)
	e.recorder.GatewayCall(kind, "ok", elapsed)

	if !result.Ambiguous || !rule.FollowUp.Allowed {
		return
	}
	if sess.FollowupCount >= e.def.MaxFollowup() {
		e.logger.Debug("follow-up budget exhausted", "session_id", sess.ID, "kind", kind)
		return
	}
	fu, ok := e.synthesize(sess, rule, result, index)
	if !ok {
		e.logger.Debug("ambiguous result carried nothing to ask", "session_id", sess.ID, "kind", kind)
		return
	}
	e.place(sess, rule, fu)
}

// classificationInputs collects the cleaned answers that feed kind, in definition order
func (e *Engine) classificationInputs(sess *model.AnswerSession, kind string) []model.InputField {
	var fields []model.InputField
	for _, q := range e.def.Questions() {
		if !q.FeedsClassification(kind) {
			continue
		}
		answer, ok := sess.Answers[q.QuestionID]
		if !ok {
			continue
		}
		if d := sanitize.Detect(answer); d.Detected {
			e.logger.Warn("possible prompt injection in answer",
				"session_id", sess.ID, "question_id", q.QuestionID, "reason", d.Reason)
		}
		cleaned := sanitize.Clean(answer, sanitize.DefaultMaxLen)
		if cleaned == "" {
			continue
		}
		fields = append(fields, model.InputField{Field: q.ResponseKey(), Value: cleaned})
	}
	return fields
}

// place decides when a synthesized follow-up is shown. Immediate ones go
// next; others wait for their target question. An empty target means the
// static question after the anchor. A target that has already been passed
// can never be reached in order, so the follow-up is dropped.
func (e *Engine) place(sess *model.AnswerSession, rule definition.Rule, fu model.DynamicFollowup) {
	p := rule.FollowUp.Presentation
	if p.Immediate {
		sess.Immediate = append(sess.Immediate, fu)
		return
	}

	anchorIdx := e.def.Index(rule.AfterQuestionID)
	target := p.AfterQuestionID
	if target == "" {
		if anchorIdx+1 >= e.def.Len() {
			sess.Immediate = append(sess.Immediate, fu)
			return
		}
		target = e.def.At(anchorIdx + 1).QuestionID
	}

	switch targetIdx := e.def.Index(target); {
	case targetIdx == anchorIdx:
		sess.Immediate = append(sess.Immediate, fu)
	case targetIdx < anchorIdx:
		e.discard(sess, fu, "target question already answered")
	default:
		sess.Queued = append(sess.Queued, model.QueuedFollowup{AfterQuestionID: target, Followup: fu})
		e.recorder.Followup(fu.Kind, FollowupQueued)
		e.logger.Debug("follow-up queued", "session_id", sess.ID, "question_id", fu.Question.QuestionID, "after", target)
	}
}

func (e *Engine) discard(sess *model.AnswerSession, fu model.DynamicFollowup, reason string) {
	e.recorder.Followup(fu.Kind, FollowupDiscarded)
	e.logger.Debug("follow-up discarded", "session_id", sess.ID, "question_id", fu.Question.QuestionID, "reason", reason)
}

func (e *Engine) presentConsent(sess *model.AnswerSession) *Step {
	q := e.renderConsent()
	sess.State = model.StateAwaitingConsent
	sess.CurrentQuestionID = q.QuestionID
	sess.Pending = nil
	return &Step{State: sess.State, Question: &q}
}

// presentNext shows the next due follow-up, else the next static question,
// else completes the session
func (e *Engine) presentNext(sess *model.AnswerSession) *Step {
	sess.Pending = nil

	for len(sess.Immediate) > 0 {
		fu := sess.Immediate[0]
		sess.Immediate = sess.Immediate[1:]
		if len(sess.Immediate) == 0 {
			sess.Immediate = nil
		}
		if sess.FollowupCount >= e.def.MaxFollowup() {
			e.discard(sess, fu, "follow-up budget exhausted")
			continue
		}

		sess.FollowupCount++
		sess.Pending = &fu
		sess.State = model.StateAwaitingFollowup
		sess.CurrentQuestionID = fu.Question.QuestionID
		e.recorder.Followup(fu.Kind, FollowupPresented)
		e.logger.Debug("follow-up presented", "session_id", sess.ID, "question_id", fu.Question.QuestionID, "n", sess.FollowupCount)

		q := fu.Question.Clone()
		return &Step{State: sess.State, Question: &q, Followup: sess.FollowupCount}
	}

	if sess.NextStatic < e.def.Len() {
		q := e.renderStatic(sess, e.def.At(sess.NextStatic))
		sess.NextStatic++
		sess.State = model.StateAwaitingAnswer
		sess.CurrentQuestionID = q.QuestionID
		return &Step{State: sess.State, Question: &q}
	}

	for _, q := range sess.Queued {
		e.discard(sess, q.Followup, "target question never reached")
	}
	sess.Queued = nil

	now := e.now()
	sess.State = model.StateCompleted
	sess.Completed = true
	sess.CurrentQuestionID = ""
	sess.CompletedAt = &now
	e.logger.Info("survey completed", "session_id", sess.ID, "answers", len(sess.History), "followups", sess.FollowupCount)
	return &Step{State: sess.State, Completed: true}
}
