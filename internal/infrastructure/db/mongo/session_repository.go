package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

const (
	collectionSessions = "tracking_sessions"
	maxRecentSessions  = 100
)

// SessionRepository implements ports.SessionRepository using MongoDB.
// Only session lifecycles are stored; location fixes never are.
type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions)}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

// Insert stores a new session document.
func (r *SessionRepository) Insert(ctx context.Context, s *domain.TrackingSession) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Close records how an active session ended.
func (r *SessionRepository) Close(ctx context.Context, id string, c ports.SessionClose) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"stopped_at":      c.StoppedAt.UTC(),
		"outcome":         string(c.Outcome),
		"fixes_delivered": c.FixesDelivered,
		"fixes_dropped":   c.FixesDropped,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Recent returns up to limit sessions, newest first. limit is clamped to
// [1, maxRecentSessions].
func (r *SessionRepository) Recent(ctx context.Context, limit int) ([]domain.TrackingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cur.Close(ctx)

	sessions := make([]domain.TrackingSession, 0)
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

// EnsureIndexes creates necessary indexes on the sessions collection.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "outcome", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > maxRecentSessions:
		return maxRecentSessions
	default:
		return limit
	}
}
