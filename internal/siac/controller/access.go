package controller

import (
	"context"
	"fmt"

	"github.com/siacdev/siac/internal/siac/cache"
	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/models"
	"go.uber.org/zap"
)

// AccessService manages the user-administration listing and user/company
// grants. The listing is visible to any authenticated user.
type AccessService struct {
	repo     Repository
	producer EventProducer
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewAccessService(repo Repository, producer EventProducer, store *cache.Cache, logger *zap.Logger) *AccessService {
	return &AccessService{
		repo:     repo,
		producer: producer,
		cache:    store,
		logger:   logger.Named("access_service"),
	}
}

// ListUsersWithCompanies returns every user together with the companies
// the user currently holds grants for. Deliberately unscoped.
func (s *AccessService) ListUsersWithCompanies(ctx context.Context) ([]models.UserWithCompanies, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]models.UserWithCompanies, 0, len(users))
	for _, user := range users {
		grants, err := s.repo.ListGrantsForUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list grants: %w", err)
		}
		ids := make([]string, 0, len(grants))
		for _, grant := range grants {
			ids = append(ids, grant.CompanyID)
		}
		companies, err := s.repo.ListCompanies(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to list companies: %w", err)
		}
		result = append(result, models.UserWithCompanies{User: user, Companies: companies})
	}
	return result, nil
}

// UpdateUserAccess replaces the user's grant set with exactly the given
// company ids. Full-replacement semantics: a prior grant missing from
// the set disappears.
func (s *AccessService) UpdateUserAccess(ctx context.Context, userID string, companyIDs []string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id required", e.ErrInvalidInput)
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.ReplaceUserGrants(ctx, userID, companyIDs); err != nil {
		return fmt.Errorf("failed to replace grants: %w", err)
	}

	s.cache.Invalidate(ctx, companiesCacheKey(userID), modulesCacheKey(userID))
	go func() {
		s.producer.Produce(events.AccessUpdated, "", map[string]any{
			"user_id":     userID,
			"company_ids": companyIDs,
		})
	}()
	return nil
}
