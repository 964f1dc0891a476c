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

// MongoLeadRepository handles lead data access with MongoDB
type MongoLeadRepository struct {
	collection *mongo.Collection
}

// NewMongoLeadRepository creates a new MongoLeadRepository
func NewMongoLeadRepository(client *mongodb.Client) *MongoLeadRepository {
	return &MongoLeadRepository{collection: client.Collection(models.TableLeads)}
}

// Create inserts a lead row
func (r *MongoLeadRepository) Create(ctx context.Context, row *models.LeadRow) error {
	if _, err := r.collection.InsertOne(ctx, row); err != nil {
		return fmt.Errorf("error creating lead: %w", err)
	}
	return nil
}

// CreateMany inserts rows in one round trip, keeping their order
func (r *MongoLeadRepository) CreateMany(ctx context.Context, rows []models.LeadRow) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, len(rows))
	for i := range rows {
		docs[i] = rows[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("error importing leads: %w", err)
	}
	return nil
}

// GetByID retrieves a lead row by id
func (r *MongoLeadRepository) GetByID(ctx context.Context, id string) (*models.LeadRow, error) {
	var row models.LeadRow
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrLeadNotFound)
		}
		return nil, fmt.Errorf("error querying lead: %w", err)
	}
	return &row, nil
}

// List returns every lead, newest first
func (r *MongoLeadRepository) List(ctx context.Context) ([]models.LeadRow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing leads: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.LeadRow{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding leads: %w", err)
	}
	return rows, nil
}

// SetFields sets only the given columns and returns the new row, leaving
// fields written concurrently by other operations intact.
func (r *MongoLeadRepository) SetFields(ctx context.Context, id string, fields map[string]interface{}) (*models.LeadRow, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$set": bson.M(fields)})
}

// SetFollowUp updates the denormalized follow-up fields and returns the new row
func (r *MongoLeadRepository) SetFollowUp(ctx context.Context, id string, next *time.Time, outcome, action string) (*models.LeadRow, error) {
	update := bson.M{"$set": bson.M{
		"next_follow_up":    next,
		"follow_up_outcome": outcome,
		"next_action":       action,
		"updated_at":        time.Now(),
	}}
	return r.findAndUpdate(ctx, id, update)
}

// MarkConverted records that the lead became an order or booking
func (r *MongoLeadRepository) MarkConverted(ctx context.Context, id, conversionType string, at time.Time) (*models.LeadRow, error) {
	set := bson.M{
		"conversion_type": conversionType,
		"conversion_date": at,
		"updated_at":      at,
	}
	switch conversionType {
	case models.ConversionOrder:
		set["converted_to_order"] = true
		set["status"] = models.StatusOngoingOrder
	case models.ConversionBooking:
		set["converted_to_booking"] = true
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoLeadRepository) findAndUpdate(ctx context.Context, id string, update bson.M) (*models.LeadRow, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var row models.LeadRow
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrLeadNotFound)
		}
		return nil, fmt.Errorf("error updating lead: %w", err)
	}
	return &row, nil
}

// EnsureIndexes creates the required indexes for the leads collection
func (r *MongoLeadRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating lead indexes: %w", err)
	}
	return nil
}

// MongoLeadStatusRepository stores custom lead status labels
type MongoLeadStatusRepository struct {
	collection *mongo.Collection
}

func NewMongoLeadStatusRepository(client *mongodb.Client) *MongoLeadStatusRepository {
	return &MongoLeadStatusRepository{collection: client.Collection(models.TableLeadStatuses)}
}

// Create inserts a label; names are unique
func (r *MongoLeadStatusRepository) Create(ctx context.Context, def *models.LeadStatusDef) error {
	if _, err := r.collection.InsertOne(ctx, def); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("lead status %q: %w", def.Name, ErrDuplicateKey)
		}
		return fmt.Errorf("error creating lead status: %w", err)
	}
	return nil
}

// List returns custom labels in creation order
func (r *MongoLeadStatusRepository) List(ctx context.Context) ([]models.LeadStatusDef, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing lead statuses: %w", err)
	}
	defer cursor.Close(ctx)

	defs := []models.LeadStatusDef{}
	if err := cursor.All(ctx, &defs); err != nil {
		return nil, fmt.Errorf("error decoding lead statuses: %w", err)
	}
	return defs, nil
}

// Exists reports whether a custom label with that name is stored
func (r *MongoLeadStatusRepository) Exists(ctx context.Context, name string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking lead status: %w", err)
	}
	return n > 0, nil
}

func (r *MongoLeadStatusRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	})
	if err != nil {
		return fmt.Errorf("error creating lead status indexes: %w", err)
	}
	return nil
}
