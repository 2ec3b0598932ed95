package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"assessment-service/internal/models"
)

type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

// EnsureIndexes creates the sampling and filter indexes.
func (r *QuestionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "level", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "competency_code", Value: 1}, {Key: "level", Value: 1}, {Key: "is_active", Value: 1}}},
	})
	return err
}

// SampleActiveByLevel draws up to count unique active questions at level
// using a $sample aggregation, which selects uniformly at random.
func (r *QuestionRepository) SampleActiveByLevel(ctx context.Context, level models.Level, count int) ([]models.Question, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"level": level, "is_active": true}}},
		{{Key: "$sample", Value: bson.M{"size": count}}},
	}
	cur, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var questions []models.Question
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuestionRepository) CountActiveByLevel(ctx context.Context, level models.Level) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{"level": level, "is_active": true})
}

// FindByIDs returns the matching questions in no particular order; callers
// reorder against their own stored sequence.
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Question, error) {
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var questions []models.Question
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// CorrectKeys returns the stored correct option key per question, keyed by
// hex ID.
func (r *QuestionRepository) CorrectKeys(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error) {
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	keys := make(map[string]string, len(ids))
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		keys[q.ID.Hex()] = q.CorrectOptionKey
	}
	return keys, cur.Err()
}

func (r *QuestionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	var question models.Question
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	res, err := r.Col.InsertOne(ctx, question)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		question.ID = oid
	}
	return nil
}

func (r *QuestionRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updated_at"] = time.Now()
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

// Deactivate soft-deletes a question; inactive questions are never sampled.
func (r *QuestionRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.Update(ctx, id, bson.M{"is_active": false})
}

// QuestionFilter narrows List results.
type QuestionFilter struct {
	Level          models.Level
	CompetencyCode string
	IsActive       *bool
	Search         string
}

func (r *QuestionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	query := bson.M{}
	if filter.Level != "" {
		query["level"] = filter.Level
	}
	if filter.CompetencyCode != "" {
		query["competency_code"] = filter.CompetencyCode
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	if filter.Search != "" {
		query["text"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}

	cur, err := r.Col.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var questions []models.Question
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}
