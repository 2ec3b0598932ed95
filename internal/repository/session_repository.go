package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
)

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("test_sessions")}
}

// EnsureIndexes creates the lookup index and the partial unique index that
// closes the duplicate-start race: at most one InProgress session per user,
// enforced by storage rather than check-then-act.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "updated_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.SessionInProgress}),
		},
	})
	return err
}

// Create inserts a new session. A concurrent start for the same user trips
// the partial unique index and surfaces as AlreadyActive.
func (r *SessionRepository) Create(ctx context.Context, session *models.TestSession) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	res, err := r.Col.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.E(apperrors.ErrAlreadyActive, "assessment already in progress")
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TestSession, error) {
	var session models.TestSession
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) FindByUserAndStatus(ctx context.Context, userID primitive.ObjectID, status models.SessionStatus) (*models.TestSession, error) {
	var session models.TestSession
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID, "status": status}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Replace writes the whole session document back in a single atomic update.
func (r *SessionRepository) Replace(ctx context.Context, session *models.TestSession) error {
	session.UpdatedAt = time.Now()
	res, err := r.Col.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.E(apperrors.ErrNotFound, "session not found")
	}
	return nil
}

// SubmitStep persists a graded step together with the resulting session
// status. The update is gated on the step being ungraded, so a concurrent
// resubmission loses the race and gets InvalidState instead of re-grading.
func (r *SessionRepository) SubmitStep(ctx context.Context, session *models.TestSession, stepIndex int) error {
	stepField := fmt.Sprintf("steps.%d", stepIndex)
	ungraded := stepField + ".submitted_at"
	filter := bson.M{"_id": session.ID, ungraded: nil}
	set := bson.M{
		stepField:    session.Steps[stepIndex],
		"status":     session.Status,
		"updated_at": time.Now(),
	}
	if session.FinalCertificationLevel != nil {
		set["final_certification_level"] = session.FinalCertificationLevel
	}

	res, err := r.Col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.E(apperrors.ErrInvalidState, "step already submitted")
	}
	return nil
}

// Delete removes a session document. It exists to roll back a start whose
// user-status update never landed.
func (r *SessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByStatus pages sessions for the supervisor view, most recent first.
func (r *SessionRepository) ListByStatus(ctx context.Context, status models.SessionStatus, page, limit int64) ([]models.TestSession, int64, error) {
	filter := bson.M{"status": status}
	total, err := r.Col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var sessions []models.TestSession
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}
