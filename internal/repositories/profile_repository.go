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

// ProfileRepository stores per-member UI preferences
type ProfileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(client *mongodb.Client) *ProfileRepository {
	return &ProfileRepository{collection: client.Collection(models.TableProfiles)}
}

// Get returns the stored profile or a default one when none exists
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return models.DefaultProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding profile: %w", err)
	}
	if profile.Columns == nil {
		profile.Columns = map[string][]string{}
	}
	return &profile, nil
}

// SetColumns saves the visible columns of one view
func (r *ProfileRepository) SetColumns(ctx context.Context, userID, view string, visible []string, at time.Time) (*models.Profile, error) {
	update := bson.M{
		"$set":         bson.M{"columns." + view: visible, "updated_at": at},
		"$setOnInsert": bson.M{"timezone": "Asia/Kolkata"},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var profile models.Profile
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&profile); err != nil {
		return nil, fmt.Errorf("error saving columns: %w", err)
	}
	return &profile, nil
}
