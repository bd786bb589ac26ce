package notify

import (
	"context"
	"time"

	notifyDomain "microlend-backend/internal/domain/notify"
	"microlend-backend/internal/infrastructure/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const ActivityCollection = "activity_logs"

type MongoActivity struct{ m *docstore.Mongo }

func NewMongoActivity(m *docstore.Mongo) *MongoActivity { return &MongoActivity{m: m} }

func (a *MongoActivity) LogActivity(ctx context.Context, act notifyDomain.Activity) error {
	if a.m == nil || a.m.Client == nil || a.m.Database == nil {
		return mongo.ErrClientDisconnected
	}
	_, err := a.m.Database.Collection(ActivityCollection).InsertOne(ctx, activityDoc(act, time.Now().UTC()), options.InsertOne())
	return err
}

func activityDoc(a notifyDomain.Activity, at time.Time) bson.D {
	doc := bson.D{
		{Key: "user_id", Value: a.UserID},
		{Key: "action", Value: a.Action},
		{Key: "entity_type", Value: a.EntityType},
		{Key: "entity_id", Value: a.EntityID},
		{Key: "description", Value: a.Description},
		{Key: "created_at", Value: at},
	}
	if len(a.Metadata) > 0 {
		doc = append(doc, bson.E{Key: "metadata", Value: a.Metadata})
	}
	return doc
}

// LogActivity writes activities to the application log when no document
// store is configured.
type LogActivity struct{ log *zap.Logger }

func NewLogActivity(log *zap.Logger) *LogActivity {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogActivity{log: log.Named("activity")}
}

func (l *LogActivity) LogActivity(_ context.Context, a notifyDomain.Activity) error {
	l.log.Info(a.Description,
		zap.String("user_id", a.UserID),
		zap.String("action", a.Action),
		zap.String("entity_type", a.EntityType),
		zap.String("entity_id", a.EntityID),
		zap.Any("metadata", a.Metadata))
	return nil
}
