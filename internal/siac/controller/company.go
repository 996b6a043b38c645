package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/siacdev/siac/internal/siac/access"
	"github.com/siacdev/siac/internal/siac/cache"
	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/models"
	"go.uber.org/zap"
)

// CompanyService manages tenant companies and their module installs.
type CompanyService struct {
	repo     Repository
	producer EventProducer
	scope    *access.Scope
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewCompanyService(repo Repository, producer EventProducer, scope *access.Scope, store *cache.Cache, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		scope:    scope,
		cache:    store,
		logger:   logger.Named("company_service"),
	}
}

func companiesCacheKey(userID string) string {
	return "companies:" + userID
}

func modulesCacheKey(userID string) string {
	return "modules:" + userID
}

// ListForUser returns the companies visible to the user, cached per
// user until a write invalidates it.
func (s *CompanyService) ListForUser(ctx context.Context, userID string) ([]models.Company, error) {
	var cached []models.Company
	if s.cache.Get(ctx, companiesCacheKey(userID), &cached) {
		return cached, nil
	}

	ids, err := s.scope.VisibleCompanyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	companies, err := s.repo.ListCompanies(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	s.cache.Set(ctx, companiesCacheKey(userID), companies)
	return companies, nil
}

// Get returns a single company the user is allowed to see.
func (s *CompanyService) Get(ctx context.Context, userID, id string) (*models.Company, error) {
	if err := s.scope.Authorize(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.GetCompany(ctx, id)
}

// Create adds a new company owned by the creating user. Three writes
// run in sequence with no atomicity: the company row, the creator's
// grant, and the default module installs.
func (s *CompanyService) Create(ctx context.Context, userID, name string) (*models.Company, error) {
	if userID == "" {
		return nil, e.ErrNoAuthenticatedUser
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: company name required", e.ErrInvalidInput)
	}

	company := &models.Company{
		ID:          s.slugID(ctx, name),
		Name:        name,
		RootAdminID: userID,
	}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	grant := &models.CompanyGrant{UserID: userID, CompanyID: company.ID}
	if err := s.repo.CreateGrant(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to grant creator access: %w", err)
	}

	for _, module := range []string{models.ModuleStockControl, models.ModulePhysicalLocations} {
		install := &models.ModuleInstall{CompanyID: company.ID, Name: module}
		if err := s.repo.CreateModuleInstall(ctx, install); err != nil {
			return nil, fmt.Errorf("failed to install default module: %w", err)
		}
	}

	s.cache.Invalidate(ctx, companiesCacheKey(userID), modulesCacheKey(userID))
	go func() {
		s.producer.Produce(events.CompanyCreated, company.ID, company)
	}()
	return company, nil
}

// Update modifies the given company fields and returns the updated row.
func (s *CompanyService) Update(ctx context.Context, userID string, update *models.CompanyUpdate) (*models.Company, error) {
	if update.ID == "" {
		return nil, fmt.Errorf("%w: invalid company ID", e.ErrInvalidInput)
	}
	if err := s.scope.Authorize(ctx, userID, update.ID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCompany(ctx, update); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetCompany(ctx, update.ID)
	if err != nil {
		s.logger.Error("failed to get company for event",
			zap.Error(err),
			zap.String("company_id", update.ID),
		)
		return nil, err
	}
	s.cache.Invalidate(ctx, companiesCacheKey(userID))
	go func() {
		s.producer.Produce(events.CompanyUpdated, updated.ID, updated)
	}()
	return updated, nil
}

// Delete removes a company by id.
func (s *CompanyService) Delete(ctx context.Context, userID, id string) error {
	if err := s.scope.Authorize(ctx, userID, id); err != nil {
		return err
	}
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, companiesCacheKey(userID), modulesCacheKey(userID))
	go func() {
		s.producer.Produce(events.CompanyDeleted, company.ID, company)
	}()
	return nil
}

// ListModules returns the module installs of every company the user can
// see, cached per user.
func (s *CompanyService) ListModules(ctx context.Context, userID string) ([]models.ModuleInstall, error) {
	var cached []models.ModuleInstall
	if s.cache.Get(ctx, modulesCacheKey(userID), &cached) {
		return cached, nil
	}

	ids, err := s.scope.VisibleCompanyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	installs, err := s.repo.ListModuleInstalls(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list module installs: %w", err)
	}
	s.cache.Set(ctx, modulesCacheKey(userID), installs)
	return installs, nil
}

// InstallModule enables a named module for a company. Installing an
// already-installed module is a no-op; the existing row is returned.
func (s *CompanyService) InstallModule(ctx context.Context, userID, companyID, name string) (*models.ModuleInstall, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: module name required", e.ErrInvalidInput)
	}
	if err := s.scope.Authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}

	installed, err := s.repo.ModuleInstalled(ctx, companyID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check module install: %w", err)
	}
	if installed {
		installs, err := s.repo.ListModuleInstalls(ctx, []string{companyID})
		if err != nil {
			return nil, err
		}
		for i := range installs {
			if installs[i].Name == name {
				return &installs[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %s", e.ErrDuplicateModule, name)
	}

	install := &models.ModuleInstall{CompanyID: companyID, Name: name}
	if err := s.repo.CreateModuleInstall(ctx, install); err != nil {
		return nil, fmt.Errorf("failed to install module: %w", err)
	}
	s.cache.Invalidate(ctx, modulesCacheKey(userID))
	go func() {
		s.producer.Produce(events.ModuleInstalled, companyID, install)
	}()
	return install, nil
}

// slugID derives a company id from its name, lowercased with spaces
// collapsed to dashes. Collisions get a numeric suffix.
func (s *CompanyService) slugID(ctx context.Context, name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.Join(strings.Fields(base), "-") + "-id"
	id := base
	for n := 2; ; n++ {
		if _, err := s.repo.GetCompany(ctx, id); err != nil {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}
