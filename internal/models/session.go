package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "InProgress"
	SessionCompleted  SessionStatus = "Completed"
	SessionFailed     SessionStatus = "Failed"
	SessionExpired    SessionStatus = "Expired"
)

// StepAnswer records the candidate's chosen option for one question.
type StepAnswer struct {
	QuestionID primitive.ObjectID `bson:"question_id" json:"question_id"`
	ChosenKey  string             `bson:"chosen_key" json:"chosen_key"`
}

// StepResult is one timed step of a test session. Questions keeps the
// presentation and grading order fixed at step creation; it is never
// re-sorted afterwards. SubmittedAt is nil until the step is graded.
type StepResult struct {
	StepNumber     int                  `bson:"step_number" json:"step_number"`
	LevelPair      []Level              `bson:"level_pair" json:"level_pair"`
	Questions      []primitive.ObjectID `bson:"questions" json:"questions"`
	Answers        []StepAnswer         `bson:"answers,omitempty" json:"answers,omitempty"`
	ScorePercent   float64              `bson:"score_percent" json:"score_percent"`
	AwardedLevel   *Level               `bson:"awarded_level,omitempty" json:"awarded_level,omitempty"`
	CanProceed     bool                 `bson:"can_proceed" json:"can_proceed"`
	StepDuration   int                  `bson:"step_duration_sec" json:"step_duration_sec"`
	TotalQuestions int                  `bson:"total_questions_in_step" json:"total_questions_in_step"`
	StartedAt      time.Time            `bson:"started_at" json:"started_at"`
	SubmittedAt    *time.Time           `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
}

func (s StepResult) Graded() bool {
	return s.SubmittedAt != nil
}

// TestSession is the unit of mutation for the assessment engine. Steps is
// append-only; a terminal session (Completed/Failed/Expired) is immutable
// except for the supervisor force-submit path.
type TestSession struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID                  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Status                  SessionStatus      `bson:"status" json:"status"`
	CurrentStepEndsAt       time.Time          `bson:"current_step_ends_at" json:"current_step_ends_at"`
	Steps                   []StepResult       `bson:"steps" json:"steps"`
	FinalCertificationLevel *Level             `bson:"final_certification_level,omitempty" json:"final_certification_level,omitempty"`
	CreatedAt               time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt               time.Time          `bson:"updated_at" json:"updated_at"`
}

// CurrentStep returns the last step, or nil for an empty session.
func (s *TestSession) CurrentStep() *StepResult {
	if len(s.Steps) == 0 {
		return nil
	}
	return &s.Steps[len(s.Steps)-1]
}
