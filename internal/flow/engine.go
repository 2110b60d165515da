// Package flow drives a respondent through a survey definition, injecting
// consent and classification follow-up questions along the way.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"surveyassist/internal/definition"
	"surveyassist/internal/gateway"
	"surveyassist/internal/model"
)

// DefaultGatewayTimeout bounds a single classification call
const DefaultGatewayTimeout = 5 * time.Second

// Step is what the respondent sees next
type Step struct {
	State     model.FlowState `json:"state"`
	Question  *model.Question `json:"question,omitempty"`
	Followup  int             `json:"followupNumber,omitempty"` // n of AwaitingFollowup(n)
	Completed bool            `json:"completed"`
	Replayed  bool            `json:"replayed,omitempty"` // duplicate submission answered from the previous result
}

// Recorder receives flow events, typically for metrics
type Recorder interface {
	GatewayCall(kind, outcome string, elapsed time.Duration)
	Followup(kind, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) GatewayCall(string, string, time.Duration) {}
func (nopRecorder) Followup(string, string)                   {}

// Follow-up outcomes reported to the Recorder
const (
	FollowupPresented = "presented"
	FollowupQueued    = "queued"
	FollowupDiscarded = "discarded"
)

type pendingKind int

const (
	pendingStatic pendingKind = iota
	pendingConsent
	pendingFollowup
)

// Engine is the survey state machine. It holds no per-session state;
// every call operates on the AnswerSession it is given, and callers must
// serialize calls for the same session.
type Engine struct {
	def      *definition.Definition
	gateway  gateway.Classifier
	timeout  time.Duration
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewEngine creates a flow engine over a loaded definition
func NewEngine(def *definition.Definition, classifier gateway.Classifier, timeout time.Duration, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		def:      def,
		gateway:  classifier,
		timeout:  timeout,
		logger:   logger,
		recorder: nopRecorder{},
		now:      time.Now,
	}
}

// SetRecorder injects the event recorder (for metrics)
func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	e.recorder = r
}

// Definition returns the survey definition the engine runs
func (e *Engine) Definition() *definition.Definition {
	return e.def
}

// Start presents the first question. A session that has already started
// gets its pending question back unchanged.
func (e *Engine) Start(sess *model.AnswerSession) (*Step, error) {
	if sess.State != model.StateNotStarted {
		return e.Current(sess)
	}
	if sess.Answers == nil {
		sess.Answers = make(map[string]string)
	}
	now := e.now()
	sess.StartedAt = &now
	sess.UpdatedAt = now
	return e.presentNext(sess), nil
}

// Current returns the pending step without changing the session
func (e *Engine) Current(sess *model.AnswerSession) (*Step, error) {
	switch sess.State {
	case model.StateNotStarted:
		return &Step{State: model.StateNotStarted}, nil
	case model.StateCompleted:
		return &Step{State: model.StateCompleted, Completed: true}, nil
	}
	q, _, err := e.pendingQuestion(sess)
	if err != nil {
		return nil, err
	}
	step := &Step{State: sess.State, Question: &q}
	if sess.State == model.StateAwaitingFollowup {
		step.Followup = sess.FollowupCount
	}
	return step, nil
}

// Submit validates and records an answer to the pending question, then
// decides what comes next. A repeat of the last accepted submission returns
// the same next step without side effects.
func (e *Engine) Submit(ctx context.Context, sess *model.AnswerSession, questionID, raw string) (*Step, error) {
	if step, ok := e.replay(sess, questionID, raw); ok {
		return step, nil
	}

	if sess.State == model.StateNotStarted || sess.State == model.StateCompleted {
		return nil, &OutOfSequenceError{QuestionID: questionID, State: sess.State}
	}
	if questionID != sess.CurrentQuestionID {
		return nil, &OutOfSequenceError{QuestionID: questionID, Expected: sess.CurrentQuestionID, State: sess.State}
	}

	q, kind, err := e.pendingQuestion(sess)
	if err != nil {
		return nil, err
	}
	value, reason := normalizeAnswer(&q, raw)
	if reason != "" {
		return nil, &InvalidAnswerError{QuestionID: questionID, Reason: reason, Question: &q}
	}

	sess.Answers[questionID] = value
	sess.History = append(sess.History, questionID)

	var step *Step
	switch kind {
	case pendingStatic:
		step = e.afterStatic(ctx, sess, questionID)
	case pendingConsent:
		step = e.afterConsent(ctx, sess, value)
	case pendingFollowup:
		step = e.afterFollowup(sess, value)
	}

	sess.LastSubmission = &model.Submission{
		QuestionID:     questionID,
		Value:          value,
		NextQuestionID: sess.CurrentQuestionID,
		Completed:      sess.Completed,
	}
	sess.UpdatedAt = e.now()
	return step, nil
}

func (e *Engine) replay(sess *model.AnswerSession, questionID, raw string) (*Step, bool) {
	last := sess.LastSubmission
	if last == nil || last.QuestionID != questionID || questionID == sess.CurrentQuestionID {
		return nil, false
	}
	if last.NextQuestionID != sess.CurrentQuestionID || last.Completed != sess.Completed {
		return nil, false
	}
	if raw != last.Value {
		// free text was recorded trimmed, so a retry may differ in surrounding space
		q, ok := e.def.Question(questionID)
		if !ok || q.ResponseType.IsClosedChoice() || strings.TrimSpace(raw) != last.Value {
			return nil, false
		}
	}
	step, err := e.Current(sess)
	if err != nil {
		return nil, false
	}
	step.Replayed = true
	return step, true
}

// pendingQuestion resolves CurrentQuestionID to a renderable question
func (e *Engine) pendingQuestion(sess *model.AnswerSession) (model.Question, pendingKind, error) {
	switch sess.State {
	case model.StateAwaitingConsent:
		return e.renderConsent(), pendingConsent, nil
	case model.StateAwaitingFollowup:
		if sess.Pending == nil || sess.Pending.Question.QuestionID != sess.CurrentQuestionID {
			return model.Question{}, 0, fmt.Errorf("session %s has no pending follow-up %q", sess.ID, sess.CurrentQuestionID)
		}
		return sess.Pending.Question.Clone(), pendingFollowup, nil
	default:
		q, ok := e.def.Question(sess.CurrentQuestionID)
		if !ok {
			return model.Question{}, 0, fmt.Errorf("session %s points at unknown question %q", sess.ID, sess.CurrentQuestionID)
		}
		return e.renderStatic(sess, q), pendingStatic, nil
	}
}

