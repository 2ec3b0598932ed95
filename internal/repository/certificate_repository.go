package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
)

type CertificateRepository struct {
	Col *mongo.Collection
}

func NewCertificateRepository(db *mongo.Database) *CertificateRepository {
	return &CertificateRepository{Col: db.Collection("certificates")}
}

// EnsureIndexes enforces certificate uniqueness: one per session, and
// globally unique verification UIDs.
func (r *CertificateRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "certificate_uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "test_session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	now := time.Now()
	cert.CreatedAt = now
	cert.UpdatedAt = now

	res, err := r.Col.InsertOne(ctx, cert)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.E(apperrors.ErrAlreadyActive, "certificate already issued for this session")
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		cert.ID = oid
	}
	return nil
}

func (r *CertificateRepository) FindBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.Col.FindOne(ctx, bson.M{"test_session_id": sessionID}).Decode(&cert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByUID(ctx context.Context, uid string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.Col.FindOne(ctx, bson.M{"certificate_uid": uid}).Decode(&cert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.Certificate, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var cert models.Certificate
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&cert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) Revoke(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"revoked_at": at,
		"updated_at": time.Now(),
	}})
	return err
}
