package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssessmentState string

const (
	AssessmentNotStarted AssessmentState = "NotStarted"
	AssessmentInProgress AssessmentState = "InProgress"
	AssessmentFailed     AssessmentState = "Failed"
	AssessmentCompleted  AssessmentState = "Completed"
)

// AssessmentStatus is the per-user assessment lifecycle sub-record. It only
// transitions through the session state machine.
type AssessmentStatus struct {
	Status        AssessmentState     `bson:"status" json:"status"`
	FinalLevel    *Level              `bson:"final_level,omitempty" json:"final_level,omitempty"`
	CertificateID *primitive.ObjectID `bson:"certificate_id,omitempty" json:"certificate_id,omitempty"`
}

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	Role             string             `bson:"role" json:"role"`
	AssessmentStatus AssessmentStatus   `bson:"assessment_status" json:"assessment_status"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// AssessmentState returns the lifecycle state, defaulting to NotStarted for
// users that have never touched the assessment.
func (u *User) AssessmentState() AssessmentState {
	if u.AssessmentStatus.Status == "" {
		return AssessmentNotStarted
	}
	return u.AssessmentStatus.Status
}
