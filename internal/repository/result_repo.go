package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyassist/internal/model"
)

// ResultCollection holds one document per completed session
const ResultCollection = "survey_results"

// ResultRepo handles MongoDB operations for completed survey results
type ResultRepo interface {
	Save(ctx context.Context, result *model.SurveyResult) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.SurveyResult, error)
	ListByRespondent(ctx context.Context, respondentID string) ([]*model.SurveyResult, error)
	EnsureIndexes(ctx context.Context) error
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection(ResultCollection),
	}
}

// Save upserts by session id so a retried completion never stores twice
func (r *resultRepo) Save(ctx context.Context, result *model.SurveyResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	filter := bson.M{"sessionId": result.SessionID}
	update := bson.M{
		"$set":         resultFields(result),
		"$setOnInsert": bson.M{"_id": result.ID},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save result for session %s: %w", result.SessionID, err)
	}
	return nil
}

func (r *resultRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.SurveyResult, error) {
	var result model.SurveyResult
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result for session %s: %w", sessionID, err)
	}
	return &result, nil
}

func (r *resultRepo) ListByRespondent(ctx context.Context, respondentID string) ([]*model.SurveyResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"respondentId": respondentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*model.SurveyResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return results, nil
}

// EnsureIndexes creates the unique session index and the respondent lookup index
func (r *resultRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "respondentId", Value: 1}, {Key: "completedAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create result indexes: %w", err)
	}
	return nil
}

// resultFields is everything but _id, which may not change on an existing document
func resultFields(res *model.SurveyResult) bson.M {
	return bson.M{
		"sessionId":     res.SessionID,
		"respondentId":  res.RespondentID,
		"surveyTitle":   res.SurveyTitle,
		"answers":       res.Answers,
		"consent":       res.Consent,
		"followupCount": res.FollowupCount,
		"interactions":  res.Interactions,
		"startedAt":     res.StartedAt,
		"completedAt":   res.CompletedAt,
	}
}
