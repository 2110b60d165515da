package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyassist/internal/cache"
	"surveyassist/internal/definition"
	"surveyassist/internal/flow"
	"surveyassist/internal/gateway"
	"surveyassist/internal/model"
)

type stubClassifier struct {
	err   error
	calls int
}

func (c *stubClassifier) Lookup(_ context.Context, kind string, _ []model.InputField) (*model.ClassificationResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &model.ClassificationResult{
		Kind:       kind,
		Ambiguous:  true,
		Candidates: []model.Candidate{{Code: "10710", Label: "Manufacture of bread"}},
	}, nil
}

type event struct {
	msgType string
	payload SessionEvent
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (b *recordingBroadcaster) BroadcastToMonitors(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{msgType, payload.(SessionEvent)})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.msgType
	}
	return out
}

type fakeResultRepo struct {
	saved map[string]*model.SurveyResult
	err   error
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{saved: make(map[string]*model.SurveyResult)}
}

func (r *fakeResultRepo) Save(_ context.Context, res *model.SurveyResult) error {
	if r.err != nil {
		return r.err
	}
	r.saved[res.SessionID] = res
	return nil
}

func (r *fakeResultRepo) GetBySessionID(_ context.Context, sessionID string) (*model.SurveyResult, error) {
	return r.saved[sessionID], nil
}

func (r *fakeResultRepo) ListByRespondent(_ context.Context, respondentID string) ([]*model.SurveyResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*model.SurveyResult
	for _, res := range r.saved {
		if res.RespondentID == respondentID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (r *fakeResultRepo) EnsureIndexes(context.Context) error { return nil }

type countingStats struct {
	started, completed int
	answers            map[string]int
}

func (s *countingStats) SessionStarted()   { s.started++ }
func (s *countingStats) SessionCompleted() { s.completed++ }
func (s *countingStats) Answer(outcome string) {
	if s.answers == nil {
		s.answers = make(map[string]int)
	}
	s.answers[outcome]++
}

type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, _ string) (func(), error) {
	<-ctx.Done()
	return nil, cache.ErrLockTimeout
}

type fixture struct {
	svc         *SurveyService
	store       cache.SessionStore
	classifier  *stubClassifier
	broadcaster *recordingBroadcaster
	results     *fakeResultRepo
	stats       *countingStats
	auth        *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	def, err := definition.LoadFile("../definition/testdata/survey_definition.json")
	require.NoError(t, err)

	f := &fixture{
		store:       cache.NewMemoryStore(time.Hour),
		classifier:  &stubClassifier{},
		broadcaster: &recordingBroadcaster{},
		results:     newFakeResultRepo(),
		stats:       &countingStats{},
		auth:        NewAuthService("admin", "secret", "test-secret"),
	}
	engine := flow.NewEngine(def, f.classifier, time.Second, nil)
	f.svc = NewSurveyService(engine, f.store, cache.NewMemoryLocker(), f.results, f.auth, nil)
	f.svc.SetBroadcaster(f.broadcaster)
	f.svc.SetStats(f.stats)
	return f
}

func (f *fixture) answer(t *testing.T, sessionID, questionID, value string) *flow.Step {
	t.Helper()
	step, err := f.svc.Submit(context.Background(), sessionID, questionID, value)
	require.NoError(t, err)
	return step
}

func TestSurveyService_FullSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateSession(ctx, "r1")
	require.NoError(t, err)
	claims, err := f.auth.ValidateRespondentToken(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.SessionID, claims.SessionID)
	assert.Equal(t, "r1", claims.RespondentID)

	step, err := f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "q1", step.Question.QuestionID)

	f.answer(t, created.SessionID, "q1", "yes")
	f.answer(t, created.SessionID, "q2", "Baker")
	f.answer(t, created.SessionID, "q3", "Bakes bread")
	step = f.answer(t, created.SessionID, "q4", "Bakery")
	assert.Equal(t, model.StateAwaitingConsent, step.State)

	step = f.answer(t, created.SessionID, "c1", "yes")
	assert.Equal(t, "f1", step.Question.QuestionID)
	assert.Equal(t, 1, step.Followup)

	f.answer(t, created.SessionID, "f1", "Manufacture of bread")
	step = f.answer(t, created.SessionID, "q5", "Other kind of organisation")
	assert.True(t, step.Completed)

	stored, err := f.store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, 1, stored.FollowupCount)

	res := f.results.saved[created.SessionID]
	require.NotNil(t, res)
	assert.Equal(t, "r1", res.RespondentID)
	assert.Len(t, res.Answers, 7)

	got, err := f.svc.Result(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Same(t, res, got)

	summary, err := f.svc.Summary(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Len(t, summary, 7)

	assert.Equal(t, 1, f.stats.started)
	assert.Equal(t, 1, f.stats.completed)
	assert.Equal(t, 7, f.stats.answers[outcomeAccepted])
	assert.Equal(t, 1, f.classifier.calls)

	types := f.broadcaster.types()
	assert.Equal(t, EventSessionStarted, types[0])
	assert.Contains(t, types, EventConsentRecorded)
	assert.Contains(t, types, EventFollowupPresented)
	assert.Equal(t, EventSessionCompleted, types[len(types)-1])
}

func TestSurveyService_StartTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "")
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)
	f.answer(t, created.SessionID, "q1", "yes")

	step, err := f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "q2", step.Question.QuestionID)
	assert.Equal(t, 1, f.stats.started)
}

func TestSurveyService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Submit(ctx, "missing", "q1", "yes")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Current(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Result(ctx, "missing")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestSurveyService_RejectedAnswersAreNotSaved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "r1")
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, created.SessionID, "q1", "maybe")
	var invalid *flow.InvalidAnswerError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "q1", invalid.Question.QuestionID)

	_, err = f.svc.Submit(ctx, created.SessionID, "q4", "Bakery")
	assert.ErrorIs(t, err, flow.ErrOutOfSequence)

	sess, err := f.store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Empty(t, sess.History)
	assert.Equal(t, 1, f.stats.answers[outcomeInvalid])
	assert.Equal(t, 1, f.stats.answers[outcomeOutOfSequence])
}

func TestSurveyService_ReplayDoesNotRebroadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "r1")
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)

	first := f.answer(t, created.SessionID, "q1", "yes")
	again := f.answer(t, created.SessionID, "q1", "yes")
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Question.QuestionID, again.Question.QuestionID)

	recorded := 0
	for _, typ := range f.broadcaster.types() {
		if typ == EventAnswerRecorded {
			recorded++
		}
	}
	assert.Equal(t, 1, recorded)
	assert.Equal(t, 1, f.stats.answers[outcomeReplayed])
}

func TestSurveyService_GatewayFailureIsBroadcast(t *testing.T) {
	f := newFixture(t)
	f.classifier.err = &gateway.GatewayError{Kind: gateway.ErrUnavailable, Err: errors.New("connection refused")}
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "r1")
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)

	f.answer(t, created.SessionID, "q1", "yes")
	f.answer(t, created.SessionID, "q2", "Baker")
	f.answer(t, created.SessionID, "q3", "Bakes bread")
	f.answer(t, created.SessionID, "q4", "Bakery")
	step := f.answer(t, created.SessionID, "c1", "yes")
	assert.Equal(t, "q5", step.Question.QuestionID)

	var failed *SessionEvent
	for _, e := range f.broadcaster.events {
		if e.msgType == EventGatewayFailed {
			failed = &e.payload
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "sic", failed.Kind)
	assert.Equal(t, "unavailable", failed.ErrorKind)
}

func TestSurveyService_ResultSaveFailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t)
	f.results.err = errors.New("mongo down")
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "r1")
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)

	f.answer(t, created.SessionID, "q1", "no")
	f.answer(t, created.SessionID, "q2", "Baker")
	f.answer(t, created.SessionID, "q3", "Bakes bread")
	f.answer(t, created.SessionID, "q4", "Bakery")
	f.answer(t, created.SessionID, "c1", "no")
	step := f.answer(t, created.SessionID, "q5", "Other kind of organisation")
	assert.True(t, step.Completed)

	f.results.err = nil
	res, err := f.svc.Result(ctx, created.SessionID)
	require.NoError(t, err, "falls back to the live session")
	assert.Equal(t, model.ConsentDenied, res.Consent)
	assert.Zero(t, f.classifier.calls)
}

func TestSurveyService_LockTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "r1")
	require.NoError(t, err)

	engine := flow.NewEngine(f.svc.engine.Definition(), f.classifier, time.Second, nil)
	svc := NewSurveyService(engine, f.store, busyLocker{}, nil, f.auth, nil)
	svc.SetLockWait(20 * time.Millisecond)

	_, err = svc.Start(ctx, created.SessionID)
	assert.ErrorIs(t, err, cache.ErrLockTimeout)
}

func TestSurveyService_ConcurrentSubmitsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "r1")
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, created.SessionID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(ctx, created.SessionID, "q1", "yes")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err, "duplicates are replayed")
	}
	sess, err := f.store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, sess.History)
}

func TestSurveyService_ResultsForRespondent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.results.saved["s1"] = &model.SurveyResult{SessionID: "s1", RespondentID: "r1", CompletedAt: older}
	f.results.saved["s2"] = &model.SurveyResult{SessionID: "s2", RespondentID: "r1", CompletedAt: older.Add(time.Hour)}
	f.results.saved["s3"] = &model.SurveyResult{SessionID: "s3", RespondentID: "r2", CompletedAt: older}

	got, err := f.svc.ResultsForRespondent(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[0].SessionID, "newest first")
	assert.Equal(t, "s1", got[1].SessionID)

	got, err = f.svc.ResultsForRespondent(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	f.results.err = errors.New("mongo down")
	_, err = f.svc.ResultsForRespondent(ctx, "r1")
	assert.ErrorContains(t, err, "mongo down")

	engine := flow.NewEngine(f.svc.engine.Definition(), f.classifier, time.Second, nil)
	noStore := NewSurveyService(engine, f.store, cache.NewMemoryLocker(), nil, f.auth, nil)
	_, err = noStore.ResultsForRespondent(ctx, "r1")
	assert.ErrorIs(t, err, ErrResultsDisabled)
}

// slowClassifier holds a Lookup open long enough for the lock ttl to lapse
// several times over on the redis clock
type slowClassifier struct {
	mr      *miniredis.Miniredis
	entered chan struct{}
	calls   int32
}

func (c *slowClassifier) Lookup(_ context.Context, kind string, _ []model.InputField) (*model.ClassificationResult, error) {
	if atomic.AddInt32(&c.calls, 1) == 1 {
		close(c.entered)
	}
	for i := 0; i < 12; i++ {
		time.Sleep(50 * time.Millisecond)
		c.mr.FastForward(50 * time.Millisecond)
	}
	return &model.ClassificationResult{Kind: kind, Code: "10710", Description: "Manufacture of bread"}, nil
}

func TestSurveyService_SlowLookupKeepsRedisLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	slow := &slowClassifier{mr: mr, entered: make(chan struct{})}
	engine := flow.NewEngine(f.svc.engine.Definition(), slow, 5*time.Second, nil)
	svc := NewSurveyService(engine, f.store, cache.NewRedisLocker(client, 300*time.Millisecond, nil), nil, f.auth, nil)

	created, err := svc.CreateSession(ctx, "r1")
	require.NoError(t, err)
	_, err = svc.Start(ctx, created.SessionID)
	require.NoError(t, err)
	for _, a := range [][2]string{{"q1", "yes"}, {"q2", "Baker"}, {"q3", "Bakes bread"}, {"q4", "Bakery"}} {
		_, err = svc.Submit(ctx, created.SessionID, a[0], a[1])
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var first, second *flow.Step
	var firstErr, secondErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = svc.Submit(ctx, created.SessionID, "c1", "yes")
	}()
	<-slow.entered
	second, secondErr = svc.Submit(ctx, created.SessionID, "c1", "yes")
	wg.Wait()

	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&slow.calls), "second submit waited for the lock")
	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)

	sess, err := f.store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Interactions, 1)
}
