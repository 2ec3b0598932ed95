package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuestionOption struct {
	Key   string `bson:"key" json:"key"`
	Label string `bson:"label" json:"label"`
}

type Question struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompetencyID primitive.ObjectID `bson:"competency_id,omitempty" json:"competency_id,omitempty"`
	// Denormalized from the referenced competency at write time so bulk ops
	// and filters do not need a join. Always uppercase.
	CompetencyCode   string           `bson:"competency_code,omitempty" json:"competency_code,omitempty"`
	Level            Level            `bson:"level" json:"level"`
	Text             string           `bson:"text" json:"text"`
	Options          []QuestionOption `bson:"options" json:"options"`
	CorrectOptionKey string           `bson:"correct_option_key" json:"-"`
	IsActive         bool             `bson:"is_active" json:"is_active"`
	CreatedAt        time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `bson:"updated_at" json:"updated_at"`
}

// PublicQuestion is the candidate-facing projection. The correct option key
// must never leave the server through this type.
type PublicQuestion struct {
	ID      primitive.ObjectID `json:"id"`
	Text    string             `json:"text"`
	Options []QuestionOption   `json:"options"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{ID: q.ID, Text: q.Text, Options: q.Options}
}

// PublicQuestions projects a slice preserving order.
func PublicQuestions(questions []Question) []PublicQuestion {
	out := make([]PublicQuestion, len(questions))
	for i, q := range questions {
		out[i] = q.Public()
	}
	return out
}
