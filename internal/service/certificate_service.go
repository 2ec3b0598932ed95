package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/event"
	"assessment-service/internal/models"
)

// CertificateService issues and looks up certificates. Issuance is
// idempotent per session: the existing-certificate check plus the store's
// (user, session) uniqueness constraint guarantee at most one certificate
// even under concurrent completion replays.
type CertificateService struct {
	certs  CertificateStore
	users  UserStore
	events *event.Publisher
	now    func() time.Time
}

func NewCertificateService(certs CertificateStore, users UserStore, events *event.Publisher) *CertificateService {
	return &CertificateService{
		certs:  certs,
		users:  users,
		events: events,
		now:    time.Now,
	}
}

func (s *CertificateService) IssueForSession(ctx context.Context, userID, sessionID primitive.ObjectID, level models.Level) (*models.Certificate, error) {
	existing, err := s.certs.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cert := &models.Certificate{
		UserID:         userID,
		TestSessionID:  sessionID,
		Level:          level,
		CertificateUID: uuid.NewString(),
		IssuedAt:       s.now(),
	}
	err = s.certs.Create(ctx, cert)
	if errors.Is(err, apperrors.ErrAlreadyActive) {
		// Lost a race against a concurrent issuance; the winner's record is
		// the certificate.
		return s.certs.FindBySessionID(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.users.SetCertificateID(ctx, userID, cert.ID); err != nil {
		return nil, err
	}

	s.events.Publish(event.CertificateIssued, map[string]interface{}{
		"certificate_uid": cert.CertificateUID,
		"user_id":         userID.Hex(),
		"session_id":      sessionID.Hex(),
		"level":           level,
	})

	return cert, nil
}

// VerifyByUID resolves a public verification lookup.
func (s *CertificateService) VerifyByUID(ctx context.Context, uid string) (*models.Certificate, error) {
	cert, err := s.certs.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if cert == nil || cert.Revoked() {
		return nil, apperrors.E(apperrors.ErrNotFound, "this certificate is not valid or could not be found")
	}
	return cert, nil
}

func (s *CertificateService) LatestForUser(ctx context.Context, userID primitive.ObjectID) (*models.Certificate, error) {
	cert, err := s.certs.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, apperrors.E(apperrors.ErrNotFound, "certificate not found")
	}
	return cert, nil
}

func (s *CertificateService) Revoke(ctx context.Context, id primitive.ObjectID) error {
	if err := s.certs.Revoke(ctx, id, s.now()); err != nil {
		return err
	}
	s.events.Publish(event.CertificateRevoked, map[string]interface{}{
		"certificate_id": id.Hex(),
	})
	return nil
}
