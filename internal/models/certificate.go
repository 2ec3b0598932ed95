package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Certificate struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	TestSessionID  primitive.ObjectID `bson:"test_session_id" json:"test_session_id"`
	Level          Level              `bson:"level" json:"level"`
	CertificateUID string             `bson:"certificate_uid" json:"certificate_uid"`
	IssuedAt       time.Time          `bson:"issued_at" json:"issued_at"`
	RevokedAt      *time.Time         `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

func (c *Certificate) Revoked() bool {
	return c.RevokedAt != nil
}
