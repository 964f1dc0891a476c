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

// MongoOrderRepository handles orders and their order_items rows
type MongoOrderRepository struct {
	orders *mongo.Collection
	items  *mongo.Collection
}

func NewMongoOrderRepository(client *mongodb.Client) *MongoOrderRepository {
	return &MongoOrderRepository{
		orders: client.Collection(models.TableOrders),
		items:  client.Collection(models.TableOrderItems),
	}
}

// Create inserts the order and then its items. If the items fail to insert
// the order row is removed again.
func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("error creating order: %w", err)
	}
	if len(order.Items) == 0 {
		return nil
	}
	docs := make([]interface{}, len(order.Items))
	for i := range order.Items {
		docs[i] = order.Items[i]
	}
	if _, err := r.items.InsertMany(ctx, docs); err != nil {
		if _, derr := r.orders.DeleteOne(ctx, bson.M{"_id": order.ID}); derr != nil {
			return fmt.Errorf("error creating order items: %w (cleanup failed: %v)", err, derr)
		}
		return fmt.Errorf("error creating order items: %w", err)
	}
	return nil
}

// GetByID returns the order with its items
func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("error querying order: %w", err)
	}
	if order.Items, err = r.itemsFor(ctx, order.ID); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, optionally filtered by status. Items are not loaded.
func (r *MongoOrderRepository) List(ctx context.Context, status string) ([]models.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("error decoding orders: %w", err)
	}
	return orders, nil
}

func (r *MongoOrderRepository) itemsFor(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	cursor, err := r.items.Find(ctx, bson.M{"order_id": orderID})
	if err != nil {
		return nil, fmt.Errorf("error listing order items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.OrderItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("error decoding order items: %w", err)
	}
	return items, nil
}

// Transition moves the order from one status to another only if it is still
// in from. Returns ErrStatusTransitionStale when the status differs.
func (r *MongoOrderRepository) Transition(ctx context.Context, id, from, to, actor string, at time.Time) (*models.Order, error) {
	set := bson.M{"status": to, "updated_at": at}
	unset := bson.M{}
	switch to {
	case models.OrderApproved:
		set["approved_by"] = actor
		set["approved_at"] = at
	case models.OrderRejected:
		set["rejected_by"] = actor
		set["rejected_at"] = at
	case models.OrderPending:
		// compensation after a failed approval
		unset["approved_by"] = ""
		unset["approved_at"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.orders.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&order)
	if err == mongo.ErrNoDocuments {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, fmt.Errorf("order %s is not %s: %w", id, from, ErrStatusTransitionStale)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating order: %w", err)
	}
	if order.Items, err = r.itemsFor(ctx, order.ID); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("error creating order indexes: %w", err)
	}
	if _, err := r.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("error creating order item indexes: %w", err)
	}
	return nil
}

// MongoBookingRepository handles bookings
type MongoBookingRepository struct {
	collection *mongo.Collection
}

func NewMongoBookingRepository(client *mongodb.Client) *MongoBookingRepository {
	return &MongoBookingRepository{collection: client.Collection(models.TableBookings)}
}

func (r *MongoBookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return &booking, nil
}

// List returns bookings by start date, optionally for one inventory item
func (r *MongoBookingRepository) List(ctx context.Context, inventoryItemID string) ([]models.Booking, error) {
	filter := bson.M{}
	if inventoryItemID != "" {
		filter["inventory_item_id"] = inventoryItemID
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// Cancel flips a confirmed booking to cancelled exactly once
func (r *MongoBookingRepository) Cancel(ctx context.Context, id string, at time.Time) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id, "status": models.BookingConfirmed}
	update := bson.M{"$set": bson.M{"status": models.BookingCancelled, "updated_at": at}}

	var booking models.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, fmt.Errorf("booking %s is not confirmed: %w", id, ErrStatusTransitionStale)
	}
	if err != nil {
		return nil, fmt.Errorf("error cancelling booking: %w", err)
	}
	return &booking, nil
}
