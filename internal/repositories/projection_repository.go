package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/mongodb"
)

// MongoProjectionRepository handles sales projection targets and entries
type MongoProjectionRepository struct {
	targets *mongo.Collection
	entries *mongo.Collection
}

func NewMongoProjectionRepository(client *mongodb.Client) *MongoProjectionRepository {
	return &MongoProjectionRepository{
		targets: client.Collection(models.TableProjectionTargets),
		entries: client.Collection(models.TableProjectionEntries),
	}
}

// UpsertTarget sets the target for (zone, sector, month), keeping the
// existing id and creation time when one is already stored
func (r *MongoProjectionRepository) UpsertTarget(ctx context.Context, t *models.ProjectionTarget) (*models.ProjectionTarget, error) {
	filter := bson.M{"zone": t.Zone, "sector": t.Sector, "month": t.Month}
	update := bson.M{
		"$set": bson.M{
			"target_amount": t.TargetAmount,
			"updated_at":    t.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        t.ID,
			"created_by": t.CreatedBy,
			"created_at": t.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.ProjectionTarget
	if err := r.targets.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("error saving projection target: %w", err)
	}
	return &stored, nil
}

// ListTargets returns targets for a month (all months when empty)
func (r *MongoProjectionRepository) ListTargets(ctx context.Context, month string) ([]models.ProjectionTarget, error) {
	filter := bson.M{}
	if month != "" {
		filter["month"] = month
	}
	opts := options.Find().SetSort(bson.D{{Key: "month", Value: 1}, {Key: "zone", Value: 1}})
	cursor, err := r.targets.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing projection targets: %w", err)
	}
	defer cursor.Close(ctx)

	targets := []models.ProjectionTarget{}
	if err := cursor.All(ctx, &targets); err != nil {
		return nil, fmt.Errorf("error decoding projection targets: %w", err)
	}
	return targets, nil
}

func (r *MongoProjectionRepository) CreateEntry(ctx context.Context, e *models.ProjectionEntry) error {
	if _, err := r.entries.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("error creating projection entry: %w", err)
	}
	return nil
}

// ListEntries returns entries for a month
func (r *MongoProjectionRepository) ListEntries(ctx context.Context, month string) ([]models.ProjectionEntry, error) {
	cursor, err := r.entries.Find(ctx, bson.M{"month": month}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing projection entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.ProjectionEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding projection entries: %w", err)
	}
	return entries, nil
}

func (r *MongoProjectionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.targets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "zone", Value: 1}, {Key: "sector", Value: 1}, {Key: "month", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("zone_sector_month_unique"),
	})
	if err != nil {
		return fmt.Errorf("error creating projection indexes: %w", err)
	}
	if _, err := r.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "month", Value: 1}, {Key: "zone", Value: 1}},
	}); err != nil {
		return fmt.Errorf("error creating projection indexes: %w", err)
	}
	return nil
}
