package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyassist/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func sampleSession(id string) *model.AnswerSession {
	s := model.NewAnswerSession(id, "resp-1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.State = model.StateAwaitingAnswer
	s.CurrentQuestionID = "q2"
	s.NextStatic = 2
	s.Answers["q1"] = "yes"
	s.History = append(s.History, "q1")
	s.Queued = []model.QueuedFollowup{{
		AfterQuestionID: "q5",
		Followup: model.DynamicFollowup{
			Kind:     "sic",
			Question: model.Question{QuestionID: "f1", ResponseType: model.ResponseText},
		},
	}}
	return s
}

// storeContract runs the behaviour every SessionStore must share
func storeContract(t *testing.T, store SessionStore) {
	ctx := context.Background()

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	s := sampleSession("s1")
	created, err := store.Create(ctx, s)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Create(ctx, sampleSession("s1"))
	require.NoError(t, err)
	assert.False(t, created, "second create with the same id must not overwrite")

	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.Answers, got.Answers)
	assert.Equal(t, s.Queued, got.Queued)
	assert.Equal(t, model.StateAwaitingAnswer, got.State)

	got.Answers["q2"] = "Baker"
	got.CurrentQuestionID = "q3"
	require.NoError(t, store.Save(ctx, got))

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Baker", again.Answers["q2"])
	assert.Equal(t, "q3", again.CurrentQuestionID)
}

func TestSessionCache_Contract(t *testing.T) {
	_, client := newTestRedis(t)
	storeContract(t, NewSessionCache(client, time.Hour))
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Hour))
}

func TestSessionCache_TTL(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewSessionCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession("s2")))
	assert.Equal(t, time.Minute, mr.TTL("survey:session:s2"))

	mr.FastForward(2 * time.Minute)
	got, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute).(*memoryStore)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession("s3")))
	now = now.Add(2 * time.Minute)

	got, err := store.Get(ctx, "s3")
	require.NoError(t, err)
	assert.Nil(t, got)

	created, err := store.Create(ctx, sampleSession("s3"))
	require.NoError(t, err)
	assert.True(t, created, "expired ids can be reused")
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleSession("s4")))

	got, err := store.Get(ctx, "s4")
	require.NoError(t, err)
	got.Answers["q1"] = "no"

	fresh, err := store.Get(ctx, "s4")
	require.NoError(t, err)
	assert.Equal(t, "yes", fresh.Answers["q1"])
}
