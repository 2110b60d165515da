package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"surveyassist/internal/cache"
	"surveyassist/internal/flow"
	"surveyassist/internal/model"
	"surveyassist/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrResultNotFound  = errors.New("result not found")
	ErrResultsDisabled = errors.New("result storage is disabled")
)

// DefaultLockWait bounds how long a request waits for a busy session
const DefaultLockWait = 15 * time.Second

// Stats receives session-level counters, typically metrics.Metrics
type Stats interface {
	SessionStarted()
	SessionCompleted()
	Answer(outcome string)
}

// Answer outcomes reported to Stats
const (
	outcomeAccepted      = "accepted"
	outcomeInvalid       = "invalid"
	outcomeOutOfSequence = "out_of_sequence"
	outcomeReplayed      = "replayed"
)

type nopStats struct{}

func (nopStats) SessionStarted()   {}
func (nopStats) SessionCompleted() {}
func (nopStats) Answer(string)     {}

// SurveyService is the session boundary: it loads a session, runs the flow
// engine on it under the session lock and saves it back
type SurveyService struct {
	engine      *flow.Engine
	store       cache.SessionStore
	locker      cache.Locker
	results     repository.ResultRepo
	auth        *AuthService
	broadcaster Broadcaster
	stats       Stats
	logger      *slog.Logger
	lockWait    time.Duration
	now         func() time.Time
}

// NewSurveyService creates a new survey service. results may be nil when
// result persistence is disabled.
func NewSurveyService(
	engine *flow.Engine,
	store cache.SessionStore,
	locker cache.Locker,
	results repository.ResultRepo,
	auth *AuthService,
	logger *slog.Logger,
) *SurveyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurveyService{
		engine:   engine,
		store:    store,
		locker:   locker,
		results:  results,
		auth:     auth,
		stats:    nopStats{},
		logger:   logger,
		lockWait: DefaultLockWait,
		now:      time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SurveyService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetStats sets the session counters
func (s *SurveyService) SetStats(st Stats) {
	if st == nil {
		st = nopStats{}
	}
	s.stats = st
}

// SetLockWait overrides how long to wait for a busy session
func (s *SurveyService) SetLockWait(d time.Duration) {
	if d > 0 {
		s.lockWait = d
	}
}

// CreateSession creates an empty session and a respondent token scoped to it
func (s *SurveyService) CreateSession(ctx context.Context, respondentID string) (*model.CreateSessionResponse, error) {
	if respondentID == "" {
		respondentID = "resp_" + uuid.New().String()[:8]
	}
	sess := model.NewAnswerSession(uuid.NewString(), respondentID, s.now())

	created, err := s.store.Create(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("failed to create session: id %s already exists", sess.ID)
	}

	token, err := s.auth.GenerateRespondentToken(sess.ID, respondentID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate respondent token: %w", err)
	}
	s.logger.Info("session created", "session_id", sess.ID, "respondent_id", respondentID)
	return &model.CreateSessionResponse{SessionID: sess.ID, Token: token}, nil
}

// Start presents the first question, or the pending one if already started
func (s *SurveyService) Start(ctx context.Context, sessionID string) (*flow.Step, error) {
	var step *flow.Step
	err := s.withSession(ctx, sessionID, func(sess *model.AnswerSession) (bool, error) {
		fresh := sess.State == model.StateNotStarted
		var err error
		step, err = s.engine.Start(sess)
		if err != nil || !fresh {
			return false, err
		}
		s.stats.SessionStarted()
		s.broadcast(EventSessionStarted, SessionEvent{
			SessionID:    sess.ID,
			RespondentID: sess.RespondentID,
			QuestionID:   sess.CurrentQuestionID,
			State:        string(sess.State),
		})
		s.afterStep(ctx, sess, step)
		return true, nil
	})
	return step, err
}

// Submit records an answer and returns the next step
func (s *SurveyService) Submit(ctx context.Context, sessionID, questionID, value string) (*flow.Step, error) {
	var step *flow.Step
	err := s.withSession(ctx, sessionID, func(sess *model.AnswerSession) (bool, error) {
		seen := len(sess.Interactions)
		state := sess.State

		var err error
		step, err = s.engine.Submit(ctx, sess, questionID, value)
		switch {
		case errors.Is(err, flow.ErrInvalidAnswer):
			s.stats.Answer(outcomeInvalid)
			return false, err
		case errors.Is(err, flow.ErrOutOfSequence):
			s.stats.Answer(outcomeOutOfSequence)
			return false, err
		case err != nil:
			return false, err
		case step.Replayed:
			s.stats.Answer(outcomeReplayed)
			return false, nil
		}

		s.stats.Answer(outcomeAccepted)
		s.broadcast(EventAnswerRecorded, SessionEvent{
			SessionID:  sess.ID,
			QuestionID: questionID,
			State:      string(sess.State),
		})
		if state == model.StateAwaitingConsent {
			s.broadcast(EventConsentRecorded, SessionEvent{SessionID: sess.ID, Consent: string(sess.Consent)})
		}
		for _, in := range sess.Interactions[seen:] {
			if in.ErrorKind != "" && in.ErrorKind != model.ErrorKindNoInputs {
				s.broadcast(EventGatewayFailed, SessionEvent{SessionID: sess.ID, Kind: in.Kind, ErrorKind: in.ErrorKind})
			}
		}
		s.afterStep(ctx, sess, step)
		return true, nil
	})
	return step, err
}

// Current returns the pending step without changing the session
func (s *SurveyService) Current(ctx context.Context, sessionID string) (*flow.Step, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.Current(sess)
}

// Summary lists what the respondent has answered so far
func (s *SurveyService) Summary(ctx context.Context, sessionID string) ([]model.AnsweredQuestion, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.Summary(sess), nil
}

// Result returns the stored result of a completed session, falling back to
// the live session while it is still in the store
func (s *SurveyService) Result(ctx context.Context, sessionID string) (*model.SurveyResult, error) {
	if s.results != nil {
		res, err := s.results.GetBySessionID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil || !sess.Completed {
		return nil, ErrResultNotFound
	}
	return s.engine.Result(sess), nil
}

// ResultsForRespondent lists the stored results of one respondent, newest first
func (s *SurveyService) ResultsForRespondent(ctx context.Context, respondentID string) ([]*model.SurveyResult, error) {
	if s.results == nil {
		return nil, ErrResultsDisabled
	}
	results, err := s.results.ListByRespondent(ctx, respondentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	if results == nil {
		results = []*model.SurveyResult{}
	}
	return results, nil
}

// afterStep reports follow-up presentation and completion
func (s *SurveyService) afterStep(ctx context.Context, sess *model.AnswerSession, step *flow.Step) {
	if sess.State == model.StateAwaitingFollowup && sess.Pending != nil {
		s.broadcast(EventFollowupPresented, SessionEvent{
			SessionID:     sess.ID,
			QuestionID:    sess.CurrentQuestionID,
			Kind:          sess.Pending.Kind,
			FollowupCount: sess.FollowupCount,
		})
	}
	if !step.Completed {
		return
	}

	s.stats.SessionCompleted()
	s.broadcast(EventSessionCompleted, SessionEvent{
		SessionID:     sess.ID,
		RespondentID:  sess.RespondentID,
		Consent:       string(sess.Consent),
		FollowupCount: sess.FollowupCount,
	})
	if s.results == nil {
		return
	}
	if err := s.results.Save(ctx, s.engine.Result(sess)); err != nil {
		s.logger.Error("failed to store survey result", "session_id", sess.ID, "err", err)
	}
}

// withSession runs fn on the session under its lock and saves it when fn reports a change
func (s *SurveyService) withSession(ctx context.Context, sessionID string, fn func(*model.AnswerSession) (bool, error)) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, sessionID)
	cancel()
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	changed, err := fn(sess)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SurveyService) load(ctx context.Context, sessionID string) (*model.AnswerSession, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SurveyService) broadcast(msgType string, payload SessionEvent) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToMonitors(msgType, payload)
	}
}
