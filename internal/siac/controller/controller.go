// Package controller implements the core business logic (service layer)
// for the SIAC platform: tenant companies, their branch locations,
// catalog/stock management and user access grants. Services orchestrate
// repository operations, enforce company visibility and send relevant
// events.
package controller

import (
	"context"

	"github.com/siacdev/siac/internal/siac/access"
	"github.com/siacdev/siac/internal/siac/cache"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/models"
	"go.uber.org/zap"
)

// EventProducer publishes domain events for completed writes.
type EventProducer interface {
	Produce(eventType events.EventType, companyID string, payload any)
}

// Repository defines the storage interface the services operate on.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	ListCompanies(ctx context.Context, ids []string) ([]models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
	DeleteCompany(ctx context.Context, id string) error

	CreateGrant(ctx context.Context, grant *models.CompanyGrant) error
	ListGrantsForUser(ctx context.Context, userID string) ([]models.CompanyGrant, error)
	ReplaceUserGrants(ctx context.Context, userID string, companyIDs []string) error

	CreateBranch(ctx context.Context, branch *models.Branch) error
	GetBranch(ctx context.Context, id uint) (*models.Branch, error)
	ListBranches(ctx context.Context, companyID string) ([]models.Branch, error)
	UpdateBranch(ctx context.Context, update *models.BranchUpdate) error
	DeleteBranch(ctx context.Context, id uint) error

	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, companyID string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, update *models.ProductUpdate) error
	DeleteProduct(ctx context.Context, id uint) error

	CreateStock(ctx context.Context, stock *models.Stock) error
	ListStock(ctx context.Context, companyID string) ([]models.Stock, error)
	SetStockQuantity(ctx context.Context, productID, branchID uint, quantity int) error

	CreateModuleInstall(ctx context.Context, install *models.ModuleInstall) error
	ListModuleInstalls(ctx context.Context, companyIDs []string) ([]models.ModuleInstall, error)
	ModuleInstalled(ctx context.Context, companyID, name string) (bool, error)

	GetCatalogConfig(ctx context.Context, companyID string) (*models.CatalogConfig, error)
	SaveCatalogConfig(ctx context.Context, cfg *models.CatalogConfig) error

	Close() error
}

// Services bundles the three service facades over one repository.
type Services struct {
	Company *CompanyService
	Catalog *CatalogService
	Access  *AccessService
}

// NewServices wires the services with a shared scope and cache.
func NewServices(repo Repository, producer EventProducer, store *cache.Cache, logger *zap.Logger) *Services {
	scope := access.NewScope(repo)
	return &Services{
		Company: NewCompanyService(repo, producer, scope, store, logger),
		Catalog: NewCatalogService(repo, producer, scope, logger),
		Access:  NewAccessService(repo, producer, store, logger),
	}
}
