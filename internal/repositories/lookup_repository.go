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

// LookupRepository handles the zone and sector lookup tables
type LookupRepository struct {
	zones   *mongo.Collection
	sectors *mongo.Collection
}

func NewLookupRepository(client *mongodb.Client) *LookupRepository {
	return &LookupRepository{
		zones:   client.Collection(models.TableZones),
		sectors: client.Collection(models.TableSectors),
	}
}

func (r *LookupRepository) ListZones(ctx context.Context) ([]models.Zone, error) {
	zones := []models.Zone{}
	if err := findSorted(ctx, r.zones, bson.M{}, &zones); err != nil {
		return nil, fmt.Errorf("error listing zones: %w", err)
	}
	return zones, nil
}

func (r *LookupRepository) CreateZone(ctx context.Context, z *models.Zone) error {
	if _, err := r.zones.InsertOne(ctx, z); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("zone %q: %w", z.Name, ErrDuplicateKey)
		}
		return fmt.Errorf("error creating zone: %w", err)
	}
	return nil
}

// ListSectors returns sectors, optionally for one zone
func (r *LookupRepository) ListSectors(ctx context.Context, zoneID string) ([]models.Sector, error) {
	filter := bson.M{}
	if zoneID != "" {
		filter["zone_id"] = zoneID
	}
	sectors := []models.Sector{}
	if err := findSorted(ctx, r.sectors, filter, &sectors); err != nil {
		return nil, fmt.Errorf("error listing sectors: %w", err)
	}
	return sectors, nil
}

func (r *LookupRepository) CreateSector(ctx context.Context, s *models.Sector) error {
	if _, err := r.sectors.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("sector %q: %w", s.Name, ErrDuplicateKey)
		}
		return fmt.Errorf("error creating sector: %w", err)
	}
	return nil
}

func findSorted(ctx context.Context, c *mongo.Collection, filter bson.M, out interface{}) error {
	cursor, err := c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (r *LookupRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.zones.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("error creating zone indexes: %w", err)
	}
	if _, err := r.sectors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "zone_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("error creating sector indexes: %w", err)
	}
	return nil
}
