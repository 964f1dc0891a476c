package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// PermissionService resolves the features a role may use. Lookups go
// through the query cache; roles without a stored row get DefaultFeatures.
type PermissionService struct {
	perms   PermissionStore
	changes changes
	queries *cache.QueryCache
	now     func() time.Time
	log     *zap.Logger
}

func NewPermissionService(perms PermissionStore, deps Deps) *PermissionService {
	return &PermissionService{
		perms:   perms,
		changes: deps.changes(),
		queries: deps.Queries,
		now:     deps.clock(),
		log:     deps.logger(),
	}
}

// FeaturesForRole returns the feature keys granted to role
func (s *PermissionService) FeaturesForRole(ctx context.Context, role string) ([]string, error) {
	load := func(ctx context.Context) ([]string, error) {
		perm, err := s.perms.GetByRole(ctx, role)
		if err != nil {
			if repositories.IsNotFound(err) {
				return models.DefaultFeatures(role), nil
			}
			return nil, err
		}
		return perm.Features, nil
	}
	if s.queries == nil {
		return load(ctx)
	}
	return cache.Fetch(ctx, s.queries, cache.QueryKey(models.TableFeaturePerms, role), load)
}

// HasFeature checks a role against a required feature. Lookup errors deny.
func (s *PermissionService) HasFeature(ctx context.Context, role, feature string) bool {
	features, err := s.FeaturesForRole(ctx, role)
	if err != nil {
		s.log.Error("failed to load features", zap.String("role", role), zap.Error(err))
		return false
	}
	return models.HasFeature(features, feature)
}

func (s *PermissionService) List(ctx context.Context) ([]models.FeaturePermission, error) {
	return s.perms.List(ctx)
}

// SetFeatures replaces the feature list of a role
func (s *PermissionService) SetFeatures(ctx context.Context, p models.Principal, role string, features []string) (*models.FeaturePermission, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if features == nil {
		features = []string{}
	}
	perm := &models.FeaturePermission{
		ID:        uuid.MustNewUUID(),
		Role:      role,
		Features:  features,
		UpdatedBy: p.UserID,
		UpdatedAt: s.now(),
	}
	if err := s.perms.Upsert(ctx, perm); err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableFeaturePerms, perm, nil)
	s.log.Info("role features updated", zap.String("role", role), zap.Strings("features", features))
	return perm, nil
}
