package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SMSStatusSent   = "sent"
	SMSStatusFailed = "failed"
)

// SMSLog is one outbound verification SMS recorded in MongoDB.
// The code itself is never stored.
type SMSLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	Mobile     string             `bson:"mobile" json:"mobile"`
	TemplateID string             `bson:"template_id" json:"template_id"`
	Status     string             `bson:"status" json:"status"`
	MessageID  string             `bson:"message_id,omitempty" json:"message_id,omitempty"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
}
