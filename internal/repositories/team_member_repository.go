package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/mongodb"
)

type MongoTeamMemberRepository struct {
	collection *mongo.Collection
}

func NewMongoTeamMemberRepository(client *mongodb.Client) *MongoTeamMemberRepository {
	return &MongoTeamMemberRepository{collection: client.Collection(models.TableTeamMembers)}
}

func (r *MongoTeamMemberRepository) GetByID(ctx context.Context, id string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrTeamMemberNotFound)
		}
		return nil, fmt.Errorf("error finding team member: %w", err)
	}
	return &member, nil
}

// GetByEmail retrieves a member by their email address (case-insensitive)
func (r *MongoTeamMemberRepository) GetByEmail(ctx context.Context, email string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.collection.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrTeamMemberNotFound)
		}
		return nil, fmt.Errorf("error finding team member by email: %w", err)
	}
	return &member, nil
}

// Create inserts a new team member document
func (r *MongoTeamMemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	member.Email = strings.ToLower(member.Email)
	if _, err := r.collection.InsertOne(ctx, member); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("email %s: %w", member.Email, ErrDuplicateKey)
		}
		return fmt.Errorf("error creating team member: %w", err)
	}
	return nil
}

// List returns members sorted by name; activeOnly hides deactivated members
func (r *MongoTeamMemberRepository) List(ctx context.Context, activeOnly bool) ([]models.TeamMember, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing team members: %w", err)
	}
	defer cursor.Close(ctx)

	members := []models.TeamMember{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("error decoding team members: %w", err)
	}
	return members, nil
}

// UpdateLastLogin records a successful sign-in
func (r *MongoTeamMemberRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_login_at": at, "updated_at": at},
	})
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	if result.MatchedCount == 0 {
		return notFound(ErrTeamMemberNotFound)
	}
	return nil
}

// EnsureIndexes creates the required indexes for the team_members collection
func (r *MongoTeamMemberRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}
	return nil
}

// MongoSessionRepository stores sign-in sessions
type MongoSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoSessionRepository(client *mongodb.Client) *MongoSessionRepository {
	return &MongoSessionRepository{collection: client.Collection(models.TableSessions)}
}

func (r *MongoSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

func (r *MongoSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(err, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("error finding session: %w", err)
	}
	return &session, nil
}

// Revoke marks a session revoked; revoking twice is a no-op
func (r *MongoSessionRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_revoked": true, "revoked_at": at},
	})
	if err != nil {
		return fmt.Errorf("error revoking session: %w", err)
	}
	if result.MatchedCount == 0 {
		return notFound(ErrSessionNotFound)
	}
	return nil
}

// EnsureIndexes adds a TTL index so expired sessions are removed by MongoDB
func (r *MongoSessionRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating session indexes: %w", err)
	}
	return nil
}
