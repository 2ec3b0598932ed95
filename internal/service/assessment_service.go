package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/event"
	"assessment-service/internal/models"
	"assessment-service/internal/outcome"
	"assessment-service/internal/sampling"
)

// AnswerSubmission is one candidate answer as received from the client.
// Malformed entries (unparseable ID, empty key) are dropped during grading,
// not treated as fatal.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	ChosenKey  string `json:"chosenKey"`
}

// StepPayload is the candidate-facing view of the current step. Questions
// are in presentation order and carry no correct keys.
type StepPayload struct {
	SessionID primitive.ObjectID      `json:"session_id"`
	EndsAt    time.Time               `json:"ends_at"`
	Questions []models.PublicQuestion `json:"questions"`
}

type SubmitResult struct {
	ScorePercent float64       `json:"score_percent"`
	AwardedLevel *models.Level `json:"awarded_level,omitempty"`
	CanProceed   bool          `json:"can_proceed"`
}

// AssessmentService is the session state machine: it owns every transition
// of a test session and mirrors outcomes onto the user record.
type AssessmentService struct {
	users     UserStore
	questions QuestionStore
	sessions  SessionStore
	sampler   *sampling.Sampler
	certs     *CertificateService
	events    *event.Publisher

	questionsPerLevel  int
	secondsPerQuestion int
	now                func() time.Time
}

func NewAssessmentService(
	users UserStore,
	questions QuestionStore,
	sessions SessionStore,
	certs *CertificateService,
	events *event.Publisher,
	questionsPerLevel int,
	secondsPerQuestion int,
) *AssessmentService {
	return &AssessmentService{
		users:              users,
		questions:          questions,
		sessions:           sessions,
		sampler:            sampling.NewSampler(questions),
		certs:              certs,
		events:             events,
		questionsPerLevel:  questionsPerLevel,
		secondsPerQuestion: secondsPerQuestion,
		now:                time.Now,
	}
}

func (s *AssessmentService) questionsPerStep() int {
	return s.questionsPerLevel * 2
}

func (s *AssessmentService) stepDuration() time.Duration {
	return time.Duration(s.questionsPerStep()*s.secondsPerQuestion) * time.Second
}

// Start begins a new assessment at step 1. The duplicate-session guard is
// double-layered: the eligibility check here, and the storage-level unique
// constraint inside SessionStore.Create that closes the race window.
func (s *AssessmentService) Start(ctx context.Context, userID primitive.ObjectID) (*StepPayload, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.E(apperrors.ErrNotFound, "user not found")
	}

	switch user.AssessmentState() {
	case models.AssessmentFailed:
		return nil, apperrors.E(apperrors.ErrNotEligible, "your account is not eligible for a retake")
	case models.AssessmentInProgress, models.AssessmentCompleted:
		return nil, apperrors.E(apperrors.ErrAlreadyActive, "assessment has already been started or completed")
	}

	existing, err := s.sessions.FindByUserAndStatus(ctx, userID, models.SessionInProgress)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.E(apperrors.ErrAlreadyActive, "assessment already in progress")
	}

	pair, _ := outcome.LevelPairForStep(1)
	questions, err := s.sampler.SampleLevelPair(ctx, pair, s.questionsPerLevel)
	if err != nil {
		return nil, err
	}

	now := s.now()
	endsAt := now.Add(s.stepDuration())
	session := &models.TestSession{
		UserID:            userID,
		Status:            models.SessionInProgress,
		CurrentStepEndsAt: endsAt,
		Steps: []models.StepResult{
			{
				StepNumber:     1,
				LevelPair:      pair,
				Questions:      questionIDs(questions),
				StepDuration:   int(s.stepDuration().Seconds()),
				TotalQuestions: s.questionsPerStep(),
				StartedAt:      now,
			},
		},
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := s.users.UpdateAssessmentStatus(ctx, userID, models.AssessmentInProgress, nil); err != nil {
		// Roll the session back so a NotStarted user never carries an
		// InProgress session.
		if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil {
			log.Printf("rollback of session %s failed: %v", session.ID.Hex(), delErr)
		}
		return nil, err
	}

	s.events.Publish(event.SessionStarted, map[string]interface{}{
		"session_id": session.ID.Hex(),
		"user_id":    userID.Hex(),
	})

	return &StepPayload{
		SessionID: session.ID,
		EndsAt:    endsAt,
		Questions: models.PublicQuestions(questions),
	}, nil
}

// GetActive returns the user's InProgress session with the current step's
// questions in their stored order. A session past its deadline is lazily
// expired here.
func (s *AssessmentService) GetActive(ctx context.Context, userID primitive.ObjectID) (*StepPayload, error) {
	session, err := s.sessions.FindByUserAndStatus(ctx, userID, models.SessionInProgress)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.E(apperrors.ErrNotFound, "no active session found")
	}

	if err := s.expireIfPastDeadline(ctx, session); err != nil {
		return nil, err
	}

	current := session.CurrentStep()
	questions, err := s.questions.FindByIDs(ctx, current.Questions)
	if err != nil {
		return nil, err
	}

	// The store returns documents in no particular order; restore the order
	// fixed at step creation.
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID.Hex()] = q
	}
	ordered := make([]models.Question, 0, len(current.Questions))
	for _, id := range current.Questions {
		if q, ok := byID[id.Hex()]; ok {
			ordered = append(ordered, q)
		}
	}

	return &StepPayload{
		SessionID: session.ID,
		EndsAt:    session.CurrentStepEndsAt,
		Questions: models.PublicQuestions(ordered),
	}, nil
}

// SubmitStep grades the current step exactly once. Every question in the
// step counts toward the score; unanswered or wrong both score zero.
func (s *AssessmentService) SubmitStep(ctx context.Context, userID, sessionID primitive.ObjectID, answers []AnswerSubmission) (*SubmitResult, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, apperrors.E(apperrors.ErrNotFound, "session not found")
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.E(apperrors.ErrInvalidState, "session is not in progress")
	}

	current := session.CurrentStep()
	if current == nil {
		return nil, apperrors.E(apperrors.ErrInvalidState, "no active step")
	}
	if current.Graded() {
		return nil, apperrors.E(apperrors.ErrInvalidState, "step already submitted")
	}

	if err := s.expireIfPastDeadline(ctx, session); err != nil {
		return nil, err
	}

	chosen := parseAnswers(answers)

	correctKeys, err := s.questions.CorrectKeys(ctx, current.Questions)
	if err != nil {
		return nil, err
	}

	correctCount := 0
	for _, qid := range current.Questions {
		key := qid.Hex()
		if chosen[key] != "" && chosen[key] == correctKeys[key] {
			correctCount++
		}
	}

	total := current.TotalQuestions
	if total == 0 {
		total = len(current.Questions)
	}
	scorePercent := round2(float64(correctCount) / float64(total) * 100)

	result, ok := outcome.Compute(current.StepNumber, scorePercent)
	if !ok {
		return nil, apperrors.E(apperrors.ErrInvalidState, fmt.Sprintf("step number %d out of range", current.StepNumber))
	}

	submittedAt := s.now()
	current.Answers = answerRecords(current.Questions, chosen)
	current.ScorePercent = scorePercent
	current.AwardedLevel = result.AwardedLevel
	current.CanProceed = result.CanProceed
	current.SubmittedAt = &submittedAt

	if result.UserStatus == models.AssessmentFailed {
		session.Status = models.SessionFailed
	} else if !result.CanProceed {
		session.Status = models.SessionCompleted
		session.FinalCertificationLevel = result.AwardedLevel
	}

	if err := s.sessions.SubmitStep(ctx, session, len(session.Steps)-1); err != nil {
		return nil, err
	}

	switch {
	case result.UserStatus == models.AssessmentFailed:
		if err := s.users.UpdateAssessmentStatus(ctx, userID, models.AssessmentFailed, nil); err != nil {
			return nil, err
		}
		s.events.Publish(event.SessionFailed, map[string]interface{}{
			"session_id": sessionID.Hex(),
			"user_id":    userID.Hex(),
		})
	case !result.CanProceed:
		if err := s.users.UpdateAssessmentStatus(ctx, userID, models.AssessmentCompleted, result.AwardedLevel); err != nil {
			return nil, err
		}
		// Grading is already committed; a failed issuance must not surface
		// as a submit error (resubmission is rejected anyway). The issuer is
		// idempotent, so completion can be replayed out of band.
		if _, err := s.certs.IssueForSession(ctx, userID, sessionID, *result.AwardedLevel); err != nil {
			log.Printf("certificate issuance for session %s failed: %v", sessionID.Hex(), err)
		}
		s.events.Publish(event.SessionCompleted, map[string]interface{}{
			"session_id": sessionID.Hex(),
			"user_id":    userID.Hex(),
			"level":      *result.AwardedLevel,
		})
	}

	s.events.Publish(event.StepSubmitted, map[string]interface{}{
		"session_id":    sessionID.Hex(),
		"user_id":       userID.Hex(),
		"step_number":   current.StepNumber,
		"score_percent": scorePercent,
	})

	return &SubmitResult{
		ScorePercent: scorePercent,
		AwardedLevel: result.AwardedLevel,
		CanProceed:   result.CanProceed,
	}, nil
}

// StartNextStep appends the next step after a graded, proceedable step. If
// sampling fails the prior grading is kept and the call can be retried once
// the pool is replenished.
func (s *AssessmentService) StartNextStep(ctx context.Context, userID, sessionID primitive.ObjectID) (*StepPayload, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, apperrors.E(apperrors.ErrNotFound, "session not found")
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.E(apperrors.ErrInvalidState, "session is not in progress")
	}

	last := session.CurrentStep()
	if last == nil || !last.Graded() {
		return nil, apperrors.E(apperrors.ErrInvalidState, "previous step not submitted")
	}
	if !last.CanProceed {
		return nil, apperrors.E(apperrors.ErrForbidden, "not eligible to proceed to the next step")
	}

	pair, ok := outcome.NextLevelPair(last.StepNumber)
	if !ok {
		return nil, apperrors.E(apperrors.ErrNoFurtherSteps, "no further steps available")
	}

	questions, err := s.sampler.SampleLevelPair(ctx, pair, s.questionsPerLevel)
	if err != nil {
		return nil, err
	}

	now := s.now()
	endsAt := now.Add(s.stepDuration())
	session.Steps = append(session.Steps, models.StepResult{
		StepNumber:     last.StepNumber + 1,
		LevelPair:      pair,
		Questions:      questionIDs(questions),
		StepDuration:   int(s.stepDuration().Seconds()),
		TotalQuestions: s.questionsPerStep(),
		StartedAt:      now,
	})
	session.CurrentStepEndsAt = endsAt

	if err := s.sessions.Replace(ctx, session); err != nil {
		return nil, err
	}

	s.events.Publish(event.StepStarted, map[string]interface{}{
		"session_id":  sessionID.Hex(),
		"user_id":     userID.Hex(),
		"step_number": last.StepNumber + 1,
	})

	return &StepPayload{
		SessionID: session.ID,
		EndsAt:    endsAt,
		Questions: models.PublicQuestions(questions),
	}, nil
}

// expireIfPastDeadline marks an overrun session Expired and resets the user
// to NotStarted: expiry is not a failure and a fresh attempt stays open.
func (s *AssessmentService) expireIfPastDeadline(ctx context.Context, session *models.TestSession) error {
	if !s.now().After(session.CurrentStepEndsAt) {
		return nil
	}

	session.Status = models.SessionExpired
	if err := s.sessions.Replace(ctx, session); err != nil {
		return err
	}
	if err := s.users.UpdateAssessmentStatus(ctx, session.UserID, models.AssessmentNotStarted, nil); err != nil {
		return err
	}
	s.events.Publish(event.SessionExpired, map[string]interface{}{
		"session_id": session.ID.Hex(),
		"user_id":    session.UserID.Hex(),
	})
	return apperrors.E(apperrors.ErrInvalidState, "session deadline has passed")
}

// parseAnswers keeps the last valid entry per question and silently drops
// malformed ones.
func parseAnswers(answers []AnswerSubmission) map[string]string {
	chosen := make(map[string]string, len(answers))
	for _, a := range answers {
		id, err := primitive.ObjectIDFromHex(a.QuestionID)
		if err != nil || a.ChosenKey == "" {
			continue
		}
		chosen[id.Hex()] = a.ChosenKey
	}
	return chosen
}

// answerRecords stores answers in the step's question order.
func answerRecords(questions []primitive.ObjectID, chosen map[string]string) []models.StepAnswer {
	records := make([]models.StepAnswer, 0, len(chosen))
	for _, qid := range questions {
		if key, ok := chosen[qid.Hex()]; ok {
			records = append(records, models.StepAnswer{QuestionID: qid, ChosenKey: key})
		}
	}
	return records
}

func questionIDs(questions []models.Question) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
