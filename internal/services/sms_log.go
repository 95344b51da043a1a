package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/blog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	smsLogCollection = "sms_logs"
	smsLogRetention  = 30 * 24 * time.Hour
)

// SMSLogStore records outbound verification SMS dispatches.
type SMSLogStore interface {
	Record(ctx context.Context, entry models.SMSLog) error
}

type MongoSMSLogStore struct {
	col *mongo.Collection
}

func NewMongoSMSLogStore(db *mongo.Database) *MongoSMSLogStore {
	return &MongoSMSLogStore{col: db.Collection(smsLogCollection)}
}

func smsLogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "mobile", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_mobile_created"),
		},
		{
			// Old dispatch records are dropped by MongoDB itself.
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("ttl_created").SetExpireAfterSeconds(int32(smsLogRetention.Seconds())),
		},
	}
}

// EnsureIndexes configures indexes for the sms_logs collection.
// Called on startup from main after Mongo has connected.
func (s *MongoSMSLogStore) EnsureIndexes(ctx context.Context) error {
	for _, m := range smsLogIndexes() {
		if _, err := s.col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoSMSLogStore) Record(ctx context.Context, entry models.SMSLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.col.InsertOne(ctx, entry)
	return err
}
