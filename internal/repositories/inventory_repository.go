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

// MongoInventoryRepository handles inventory items. Stock counters are only
// changed through single conditional updates so concurrent approvals and
// bookings cannot oversell.
type MongoInventoryRepository struct {
	collection *mongo.Collection
}

func NewMongoInventoryRepository(client *mongodb.Client) *MongoInventoryRepository {
	return &MongoInventoryRepository{collection: client.Collection(models.TableInventoryItems)}
}

func (r *MongoInventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("error creating inventory item: %w", err)
	}
	return nil
}

func (r *MongoInventoryRepository) GetByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrInventoryNotFound)
		}
		return nil, fmt.Errorf("error querying inventory item: %w", err)
	}
	return &item, nil
}

// List returns items sorted by name
func (r *MongoInventoryRepository) List(ctx context.Context) ([]models.InventoryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing inventory: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.InventoryItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("error decoding inventory: %w", err)
	}
	return items, nil
}

// Replace overwrites an item. The write only applies while the stored
// available_quantity still equals expectedAvailable, so a direct edit cannot
// clobber a concurrent approval.
func (r *MongoInventoryRepository) Replace(ctx context.Context, item *models.InventoryItem, expectedAvailable int) error {
	filter := bson.M{"_id": item.ID, "available_quantity": expectedAvailable}
	result, err := r.collection.ReplaceOne(ctx, filter, item)
	if err != nil {
		return fmt.Errorf("error updating inventory item: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, item.ID); err != nil {
			return err
		}
		return fmt.Errorf("inventory item %s: %w", item.ID, ErrStatusTransitionStale)
	}
	return nil
}

// Decrement atomically takes qty units when at least qty are available.
// When the counter reaches zero the status becomes exhaustedStatus.
// Returns ErrInsufficientStock when fewer than qty remain.
func (r *MongoInventoryRepository) Decrement(ctx context.Context, id string, qty int, exhaustedStatus string) (*models.InventoryItem, error) {
	remaining := bson.M{"$subtract": bson.A{"$available_quantity", qty}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{remaining, 0}}, exhaustedStatus, "$status",
			}},
			"available_quantity": remaining,
			"updated_at":         time.Now(),
		}}},
	}
	filter := bson.M{"_id": id, "available_quantity": bson.M{"$gte": qty}}
	return r.conditionalUpdate(ctx, id, filter, update, ErrInsufficientStock)
}

// Restore atomically returns qty units, never exceeding quantity. A sold or
// booked item with stock again becomes available.
func (r *MongoInventoryRepository) Restore(ctx context.Context, id string, qty int) (*models.InventoryItem, error) {
	restored := bson.M{"$min": bson.A{
		bson.M{"$add": bson.A{"$available_quantity", qty}}, "$quantity",
	}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gt": bson.A{restored, 0}},
					bson.M{"$in": bson.A{"$status", bson.A{models.InventorySold, models.InventoryBooked}}},
				}},
				models.InventoryAvailable,
				"$status",
			}},
			"available_quantity": restored,
			"updated_at":         time.Now(),
		}}},
	}
	return r.conditionalUpdate(ctx, id, bson.M{"_id": id}, update, nil)
}

func (r *MongoInventoryRepository) conditionalUpdate(ctx context.Context, id string, filter bson.M, update mongo.Pipeline, unmet error) (*models.InventoryItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var item models.InventoryItem
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
	if err == nil {
		return &item, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("error updating stock: %w", err)
	}
	if unmet == nil {
		return nil, WrapNotFound(err, ErrInventoryNotFound)
	}
	// distinguish a missing item from an unmet condition
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, fmt.Errorf("inventory item %s: %w", id, unmet)
}

func (r *MongoInventoryRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "zone", Value: 1}, {Key: "sector", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating inventory indexes: %w", err)
	}
	return nil
}
