package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/mongodb"
)

// MongoActivityRepository handles lead activity data access with MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new MongoActivityRepository
func NewMongoActivityRepository(client *mongodb.Client) *MongoActivityRepository {
	return &MongoActivityRepository{collection: client.Collection(models.TableActivities)}
}

// Create inserts an activity row
func (r *MongoActivityRepository) Create(ctx context.Context, row *models.ActivityRow) error {
	if _, err := r.collection.InsertOne(ctx, row); err != nil {
		return fmt.Errorf("error creating activity: %w", err)
	}
	return nil
}

// GetByID retrieves an activity by id
func (r *MongoActivityRepository) GetByID(ctx context.Context, id string) (*models.ActivityRow, error) {
	var row models.ActivityRow
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrActivityNotFound)
		}
		return nil, fmt.Errorf("error querying activity: %w", err)
	}
	return &row, nil
}

// ListByLead returns the activities of one lead, newest first
func (r *MongoActivityRepository) ListByLead(ctx context.Context, leadID string) ([]models.ActivityRow, error) {
	return r.find(ctx, bson.M{"lead_id": leadID}, 0)
}

// List returns the most recent activities across all leads; limit <= 0 means no limit
func (r *MongoActivityRepository) List(ctx context.Context, limit int) ([]models.ActivityRow, error) {
	return r.find(ctx, bson.M{}, limit)
}

// ListBetween returns activities whose start time, or creation time when
// unscheduled, falls in [from, to), newest first
func (r *MongoActivityRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.ActivityRow, error) {
	window := bson.M{"$gte": from, "$lt": to}
	filter := bson.M{"$or": bson.A{
		bson.M{"start_time": window},
		bson.M{"start_time": nil, "created_at": window},
	}}
	return r.find(ctx, filter, 0)
}

func (r *MongoActivityRepository) find(ctx context.Context, filter bson.M, limit int) ([]models.ActivityRow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing activities: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.ActivityRow{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding activities: %w", err)
	}
	return rows, nil
}

// Hide adds memberID to hidden_for; hiding twice is a no-op
func (r *MongoActivityRepository) Hide(ctx context.Context, id, memberID string) (*models.ActivityRow, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$addToSet": bson.M{"hidden_for": memberID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
}

// Unhide removes memberID from hidden_for
func (r *MongoActivityRepository) Unhide(ctx context.Context, id, memberID string) (*models.ActivityRow, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$pull": bson.M{"hidden_for": memberID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
}

// SetUpdate replaces the free-text update field, the only editable field
func (r *MongoActivityRepository) SetUpdate(ctx context.Context, id, text string) (*models.ActivityRow, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$set": bson.M{"update": text, "updated_at": time.Now()},
	})
}

func (r *MongoActivityRepository) findAndUpdate(ctx context.Context, id string, update bson.M) (*models.ActivityRow, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var row models.ActivityRow
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrActivityNotFound)
		}
		return nil, fmt.Errorf("error updating activity: %w", err)
	}
	return &row, nil
}

// EnsureIndexes creates the required indexes for the activities collection
func (r *MongoActivityRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating activity indexes: %w", err)
	}
	return nil
}
