package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/servicedesk/session-gateway/internal/core/domain"
)

const authEventCollection = "auth_events"

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
type AuthEventRepository struct {
	coll *mongo.Collection
}

func NewAuthEventRepository(db *mongo.Database) *AuthEventRepository {
	return &AuthEventRepository{coll: db.Collection(authEventCollection)}
}

type mongoAuthEvent struct {
	ID         string `bson:"_id"`
	Kind       string `bson:"kind"`
	SessionKey string `bson:"session_key"`
	Email      string `bson:"email,omitempty"`
	Role       string `bson:"role,omitempty"`
	Reason     string `bson:"reason,omitempty"`
	Timestamp  int64  `bson:"timestamp"`
}

func (r *AuthEventRepository) Insert(ctx context.Context, event domain.AuthEvent) error {
	doc := mongoAuthEvent{
		ID:         event.ID,
		Kind:       string(event.Kind),
		SessionKey: event.SessionKey,
		Email:      event.Email,
		Role:       string(event.Role),
		Reason:     event.Reason,
		Timestamp:  event.Timestamp.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// Recent returns the newest audit entries, most recent first.
func (r *AuthEventRepository) Recent(ctx context.Context, limit int) ([]domain.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find auth events: %w", err)
	}
	defer cur.Close(ctx)

	var events []domain.AuthEvent
	for cur.Next(ctx) {
		var me mongoAuthEvent
		if err := cur.Decode(&me); err != nil {
			return nil, fmt.Errorf("decode auth event: %w", err)
		}
		events = append(events, domain.AuthEvent{
			ID:         me.ID,
			Kind:       domain.AuthEventKind(me.Kind),
			SessionKey: me.SessionKey,
			Email:      me.Email,
			Role:       domain.Role(me.Role),
			Reason:     me.Reason,
			Timestamp:  unixToTime(me.Timestamp),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate auth events: %w", err)
	}
	return events, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
