// Package db implements the persistent store behind the gateway. The
// default driver is an in-memory SQLite database, which keeps rows for
// the lifetime of the process; Postgres can be configured for real
// deployments without touching callers.
package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Driver   string // "sqlite" (default) or "postgres"
	DSN      string // sqlite path, ":memory:" when empty
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.CompanyGrant{},
		&models.Branch{},
		&models.Product{},
		&models.Stock{},
		&models.ModuleInstall{},
		&models.CatalogConfig{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Users

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

// Companies

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *Repository) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

// ListCompanies returns the companies whose ids are in the given set,
// in insertion order. An empty set yields an empty slice.
func (r *Repository) ListCompanies(ctx context.Context, ids []string) ([]models.Company, error) {
	if len(ids) == 0 {
		return []models.Company{}, nil
	}
	var companies []models.Company
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at").Find(&companies).Error
	return companies, err
}

func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	patch := map[string]any{}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.LogoURL != nil {
		patch["logo_url"] = *update.LogoURL
	}
	if update.LogoIconURL != nil {
		patch["logo_icon_url"] = *update.LogoIconURL
	}
	if len(patch) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", update.ID).
		Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteCompany(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// Grants

func (r *Repository) CreateGrant(ctx context.Context, grant *models.CompanyGrant) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *Repository) ListGrantsForUser(ctx context.Context, userID string) ([]models.CompanyGrant, error) {
	var grants []models.CompanyGrant
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&grants).Error
	return grants, err
}

// ReplaceUserGrants removes every grant the user holds and inserts one
// per company id in the given set. The two steps run as independent
// writes; there is no rollback if the insert fails.
func (r *Repository) ReplaceUserGrants(ctx context.Context, userID string, companyIDs []string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Delete(&models.CompanyGrant{}).Error; err != nil {
		return err
	}
	for _, companyID := range companyIDs {
		grant := models.CompanyGrant{UserID: userID, CompanyID: companyID}
		if err := r.db.WithContext(ctx).Create(&grant).Error; err != nil {
			return err
		}
	}
	return nil
}

// Branches

func (r *Repository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *Repository) GetBranch(ctx context.Context, id uint) (*models.Branch, error) {
	var branch models.Branch
	result := r.db.WithContext(ctx).First(&branch, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &branch, nil
}

func (r *Repository) ListBranches(ctx context.Context, companyID string) ([]models.Branch, error) {
	var branches []models.Branch
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&branches).Error
	return branches, err
}

func (r *Repository) UpdateBranch(ctx context.Context, update *models.BranchUpdate) error {
	patch := map[string]any{}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.Address != nil {
		patch["address"] = *update.Address
	}
	if update.Latitude != nil {
		patch["latitude"] = *update.Latitude
	}
	if update.Longitude != nil {
		patch["longitude"] = *update.Longitude
	}
	if update.Type != nil {
		patch["type"] = *update.Type
	}
	if len(patch) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Branch{}).
		Where("id = ?", update.ID).
		Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteBranch removes the branch row only. Stock rows referencing the
// branch are left in place; see the catalog service for the rationale.
func (r *Repository) DeleteBranch(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Branch{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// Products

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &product, nil
}

func (r *Repository) ListProducts(ctx context.Context, companyID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&products).Error
	return products, err
}

func (r *Repository) UpdateProduct(ctx context.Context, update *models.ProductUpdate) error {
	patch := map[string]any{}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.SKU != nil {
		patch["sku"] = *update.SKU
	}
	if update.Description != nil {
		patch["description"] = *update.Description
	}
	if len(patch) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", update.ID).
			Updates(patch)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
	}
	if update.CustomFields != nil {
		result := r.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", update.ID).
			Update("custom_fields", *update.CustomFields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
	}
	return nil
}

// DeleteProduct removes the product and then its stock rows. The two
// deletes are independent writes with no rollback.
func (r *Repository) DeleteProduct(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.Stock{}).Error
}

// Stock

func (r *Repository) CreateStock(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *Repository) ListStock(ctx context.Context, companyID string) ([]models.Stock, error) {
	var rows []models.Stock
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).
		Order("product_id, branch_id").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListStockForProduct(ctx context.Context, productID uint) ([]models.Stock, error) {
	var rows []models.Stock
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("branch_id").Find(&rows).Error
	return rows, err
}

func (r *Repository) SetStockQuantity(ctx context.Context, productID, branchID uint, quantity int) error {
	result := r.db.WithContext(ctx).Model(&models.Stock{}).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// Module installs

func (r *Repository) CreateModuleInstall(ctx context.Context, install *models.ModuleInstall) error {
	return r.db.WithContext(ctx).Create(install).Error
}

func (r *Repository) ListModuleInstalls(ctx context.Context, companyIDs []string) ([]models.ModuleInstall, error) {
	if len(companyIDs) == 0 {
		return []models.ModuleInstall{}, nil
	}
	var installs []models.ModuleInstall
	err := r.db.WithContext(ctx).Where("company_id IN ?", companyIDs).Order("id").Find(&installs).Error
	return installs, err
}

func (r *Repository) ModuleInstalled(ctx context.Context, companyID, name string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.ModuleInstall{}).
		Where("company_id = ? AND name = ?", companyID, name).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

// Catalog configuration

func (r *Repository) GetCatalogConfig(ctx context.Context, companyID string) (*models.CatalogConfig, error) {
	var cfg models.CatalogConfig
	result := r.db.WithContext(ctx).First(&cfg, "company_id = ?", companyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &cfg, nil
}

func (r *Repository) SaveCatalogConfig(ctx context.Context, cfg *models.CatalogConfig) error {
	var existing models.CatalogConfig
	result := r.db.WithContext(ctx).First(&existing, "company_id = ?", cfg.CompanyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(cfg).Error
		}
		return result.Error
	}
	cfg.ID = existing.ID
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
