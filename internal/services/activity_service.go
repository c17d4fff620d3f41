package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityService records and serves the audit feed in MongoDB.
// A nil service is a valid no-op: the feature is disabled when no
// MONGODB_URI is configured.
type ActivityService struct {
	collection *mongo.Collection
}

// NewActivityService creates a new activity service
func NewActivityService(db *database.MongoDB) *ActivityService {
	return &ActivityService{
		collection: db.Collection(database.CollectionActivities),
	}
}

// EnsureIndexes creates the indexes the feed queries depend on
func (s *ActivityService) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "orgId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create activity indexes: %w", err)
	}
	return nil
}

// Record writes one activity entry. Failures are logged and swallowed:
// the audit feed never blocks the action it describes.
func (s *ActivityService) Record(ctx context.Context, orgID, userID, projectID, taskID, action string, metadata map[string]interface{}) {
	if s == nil {
		return
	}

	activity := models.Activity{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		ProjectID: projectID,
		TaskID:    taskID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.collection.InsertOne(ctx, activity); err != nil {
		log.Printf("⚠️  Failed to record activity %s: %v", action, err)
	}
}

// ListByOrg returns the newest activities for an organization
func (s *ActivityService) ListByOrg(ctx context.Context, orgID string, limit int64) ([]models.Activity, error) {
	if s == nil {
		return []models.Activity{}, nil
	}
	return s.list(ctx, bson.M{"orgId": orgID}, limit)
}

// ListByProject returns the newest activities for one project
func (s *ActivityService) ListByProject(ctx context.Context, orgID, projectID string, limit int64) ([]models.Activity, error) {
	if s == nil {
		return []models.Activity{}, nil
	}
	return s.list(ctx, bson.M{"orgId": orgID, "projectId": projectID}, limit)
}

func (s *ActivityService) list(ctx context.Context, filter bson.M, limit int64) ([]models.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}

// PurgeOlderThan deletes activities past the retention window and
// returns how many were removed
func (s *ActivityService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil {
		return 0, nil
	}

	result, err := s.collection.DeleteMany(ctx, bson.M{
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge activities: %w", err)
	}
	return result.DeletedCount, nil
}
