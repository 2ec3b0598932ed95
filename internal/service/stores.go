package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/models"
	"assessment-service/internal/sampling"
)

// Store interfaces consumed by the engine. The Mongo repositories satisfy
// them; tests use in-memory implementations. Absent documents are returned
// as (nil, nil), storage faults as errors.

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateAssessmentStatus(ctx context.Context, id primitive.ObjectID, status models.AssessmentState, finalLevel *models.Level) error
	SetCertificateID(ctx context.Context, id, certificateID primitive.ObjectID) error
}

type QuestionStore interface {
	sampling.QuestionSource
	// FindByIDs preserves no particular order; callers reorder.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Question, error)
	CorrectKeys(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error)
}

type SessionStore interface {
	// Create must reject a second InProgress session for the same user with
	// an AlreadyActive error (storage-level constraint, not an app check).
	Create(ctx context.Context, session *models.TestSession) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.TestSession, error)
	FindByUserAndStatus(ctx context.Context, userID primitive.ObjectID, status models.SessionStatus) (*models.TestSession, error)
	// Replace writes the whole session document atomically.
	Replace(ctx context.Context, session *models.TestSession) error
	// SubmitStep persists session.Steps[stepIndex] plus the session status,
	// conditional on that step being ungraded; InvalidState when it is not.
	SubmitStep(ctx context.Context, session *models.TestSession, stepIndex int) error
	// Delete removes a session outright. Only used to compensate a failed
	// start; graded sessions are never deleted.
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByStatus(ctx context.Context, status models.SessionStatus, page, limit int64) ([]models.TestSession, int64, error)
}

type CertificateStore interface {
	// Create rejects a duplicate for the same (user, session) pair.
	Create(ctx context.Context, cert *models.Certificate) error
	FindBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*models.Certificate, error)
	FindByUID(ctx context.Context, uid string) (*models.Certificate, error)
	FindLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.Certificate, error)
	Revoke(ctx context.Context, id primitive.ObjectID, at time.Time) error
}
