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

// PermissionRepository handles role feature permissions
type PermissionRepository struct {
	collection *mongo.Collection
}

// NewPermissionRepository creates a new PermissionRepository
func NewPermissionRepository(client *mongodb.Client) *PermissionRepository {
	return &PermissionRepository{collection: client.Collection(models.TableFeaturePerms)}
}

// GetByRole returns the feature list of a role
func (r *PermissionRepository) GetByRole(ctx context.Context, role string) (*models.FeaturePermission, error) {
	var perm models.FeaturePermission
	err := r.collection.FindOne(ctx, bson.M{"role": role}).Decode(&perm)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrFeaturePermsNotFound)
		}
		return nil, fmt.Errorf("failed to find feature permissions: %w", err)
	}
	return &perm, nil
}

// List returns every role's permissions
func (r *PermissionRepository) List(ctx context.Context) ([]models.FeaturePermission, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "role", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list feature permissions: %w", err)
	}
	defer cursor.Close(ctx)

	perms := []models.FeaturePermission{}
	if err := cursor.All(ctx, &perms); err != nil {
		return nil, fmt.Errorf("failed to decode feature permissions: %w", err)
	}
	return perms, nil
}

// Upsert replaces the feature list of a role
func (r *PermissionRepository) Upsert(ctx context.Context, perm *models.FeaturePermission) error {
	update := bson.M{
		"$set": bson.M{
			"features":   perm.Features,
			"updated_by": perm.UpdatedBy,
			"updated_at": perm.UpdatedAt,
		},
		"$setOnInsert": bson.M{"_id": perm.ID},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"role": perm.Role}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save feature permissions: %w", err)
	}
	return nil
}

// EnsureIndexes creates necessary indexes for feature permissions
func (r *PermissionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "role", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("role_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create feature permission index: %w", err)
	}
	return nil
}
