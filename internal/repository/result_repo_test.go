package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"surveyassist/internal/model"
)

func TestResultRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "surveyassist." + ResultCollection

	mt.Run("save assigns an id", func(mt *mtest.T) {
		repo := NewResultRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		res := &model.SurveyResult{SessionID: "s1", RespondentID: "r1", SurveyTitle: "Labour Market Survey"}
		require.NoError(mt, repo.Save(context.Background(), res))
		assert.NotEmpty(mt, res.ID)
	})

	mt.Run("save surfaces write errors", func(mt *mtest.T) {
		repo := NewResultRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Save(context.Background(), &model.SurveyResult{SessionID: "s1"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to save result for session s1")
	})

	mt.Run("get by session id", func(mt *mtest.T) {
		repo := NewResultRepo(mt.DB)
		completed := time.Date(2024, 11, 11, 9, 30, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "res-1"},
			{Key: "sessionId", Value: "s1"},
			{Key: "respondentId", Value: "r1"},
			{Key: "consent", Value: "granted"},
			{Key: "followupCount", Value: 1},
			{Key: "completedAt", Value: completed},
		}))

		res, err := repo.GetBySessionID(context.Background(), "s1")
		require.NoError(mt, err)
		require.NotNil(mt, res)
		assert.Equal(mt, "res-1", res.ID)
		assert.Equal(mt, model.ConsentGranted, res.Consent)
		assert.Equal(mt, 1, res.FollowupCount)
		assert.True(mt, completed.Equal(res.CompletedAt))
	})

	mt.Run("missing session", func(mt *mtest.T) {
		repo := NewResultRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		res, err := repo.GetBySessionID(context.Background(), "nope")
		require.NoError(mt, err)
		assert.Nil(mt, res)
	})

	mt.Run("list by respondent", func(mt *mtest.T) {
		repo := NewResultRepo(mt.DB)
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "a"}, {Key: "sessionId", Value: "s1"}},
			bson.D{{Key: "_id", Value: "b"}, {Key: "sessionId", Value: "s2"}},
		)
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, end)

		results, err := repo.ListByRespondent(context.Background(), "r1")
		require.NoError(mt, err)
		require.Len(mt, results, 2)
		assert.Equal(mt, "s2", results[1].SessionID)
	})
}
