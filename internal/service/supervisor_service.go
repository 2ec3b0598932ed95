package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/event"
	"assessment-service/internal/models"
)

// SupervisorService covers the administrative surface: monitoring active
// sessions and force-submitting them.
type SupervisorService struct {
	sessions  SessionStore
	questions QuestionStore
	events    *event.Publisher
	now       func() time.Time
}

func NewSupervisorService(sessions SessionStore, questions QuestionStore, events *event.Publisher) *SupervisorService {
	return &SupervisorService{
		sessions:  sessions,
		questions: questions,
		events:    events,
		now:       time.Now,
	}
}

type SessionPage struct {
	Items []models.TestSession `json:"items"`
	Page  int64                `json:"page"`
	Limit int64                `json:"limit"`
	Total int64                `json:"total"`
}

func (s *SupervisorService) ListActiveSessions(ctx context.Context, page, limit int64) (*SessionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	items, total, err := s.sessions.ListByStatus(ctx, models.SessionInProgress, page, limit)
	if err != nil {
		return nil, err
	}
	return &SessionPage{Items: items, Page: page, Limit: limit, Total: total}, nil
}

type SessionDetail struct {
	Session   *models.TestSession     `json:"session"`
	Questions []models.PublicQuestion `json:"questions"`
}

func (s *SupervisorService) SessionDetail(ctx context.Context, sessionID primitive.ObjectID) (*SessionDetail, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.E(apperrors.ErrNotFound, "session not found")
	}

	detail := &SessionDetail{Session: session}
	if current := session.CurrentStep(); current != nil {
		questions, err := s.questions.FindByIDs(ctx, current.Questions)
		if err != nil {
			return nil, err
		}
		detail.Questions = models.PublicQuestions(questions)
	}
	return detail, nil
}

// ForceSubmit administratively terminates an InProgress session. It stamps
// the current step's submission time without grading: no score, no awarded
// level, and no certificate downstream.
func (s *SupervisorService) ForceSubmit(ctx context.Context, sessionID primitive.ObjectID) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperrors.E(apperrors.ErrNotFound, "session not found")
	}
	if session.Status != models.SessionInProgress {
		return apperrors.E(apperrors.ErrInvalidState, "session is not in progress")
	}

	if current := session.CurrentStep(); current != nil && !current.Graded() {
		submittedAt := s.now()
		current.SubmittedAt = &submittedAt
	}
	session.Status = models.SessionCompleted

	if err := s.sessions.Replace(ctx, session); err != nil {
		return err
	}

	s.events.Publish(event.SessionForceSubmitted, map[string]interface{}{
		"session_id": sessionID.Hex(),
		"user_id":    session.UserID.Hex(),
	})
	return nil
}
