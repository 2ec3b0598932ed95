package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"assessment-service/internal/models"
)

type UserRepository struct {
	Col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{Col: db.Collection("users")}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAssessmentStatus mirrors the session outcome onto the user's
// permanent record. finalLevel is left untouched when nil.
func (r *UserRepository) UpdateAssessmentStatus(ctx context.Context, id primitive.ObjectID, status models.AssessmentState, finalLevel *models.Level) error {
	set := bson.M{
		"assessment_status.status": status,
		"updated_at":               time.Now(),
	}
	if finalLevel != nil {
		set["assessment_status.final_level"] = finalLevel
	}
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (r *UserRepository) SetCertificateID(ctx context.Context, id, certificateID primitive.ObjectID) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"assessment_status.certificate_id": certificateID,
		"updated_at":                       time.Now(),
	}})
	return err
}
