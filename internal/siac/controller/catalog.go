package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/siacdev/siac/internal/siac/access"
	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/models"
	"go.uber.org/zap"
)

// CatalogService manages a company's branches, products, stock rows and
// catalog configuration.
type CatalogService struct {
	repo     Repository
	producer EventProducer
	scope    *access.Scope
	logger   *zap.Logger
}

func NewCatalogService(repo Repository, producer EventProducer, scope *access.Scope, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		producer: producer,
		scope:    scope,
		logger:   logger.Named("catalog_service"),
	}
}

// Branches

func (s *CatalogService) ListBranches(ctx context.Context, userID, companyID string) ([]models.Branch, error) {
	if err := s.scope.Authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListBranches(ctx, companyID)
}

// AddBranch creates a branch for the company. The company id is fixed
// at creation.
func (s *CatalogService) AddBranch(ctx context.Context, userID string, branch *models.Branch) (*models.Branch, error) {
	if strings.TrimSpace(branch.Name) == "" {
		return nil, fmt.Errorf("%w: branch name required", e.ErrInvalidInput)
	}
	if branch.Type == "" {
		branch.Type = models.BranchPOS
	}
	if err := s.scope.Authorize(ctx, userID, branch.CompanyID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}
	go func() {
		s.producer.Produce(events.BranchAdded, branch.CompanyID, branch)
	}()
	return branch, nil
}

func (s *CatalogService) UpdateBranch(ctx context.Context, userID string, update *models.BranchUpdate) (*models.Branch, error) {
	branch, err := s.repo.GetBranch(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	if err := s.scope.Authorize(ctx, userID, branch.CompanyID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBranch(ctx, update); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetBranch(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	go func() {
		s.producer.Produce(events.BranchUpdated, updated.CompanyID, updated)
	}()
	return updated, nil
}

// DeleteBranch removes the branch. Stock rows referencing it are kept;
// the launcher never shows them but the rows stay addressable by id.
func (s *CatalogService) DeleteBranch(ctx context.Context, userID string, id uint) error {
	branch, err := s.repo.GetBranch(ctx, id)
	if err != nil {
		return err
	}
	if err := s.scope.Authorize(ctx, userID, branch.CompanyID); err != nil {
		return err
	}
	if err := s.repo.DeleteBranch(ctx, id); err != nil {
		return err
	}
	go func() {
		s.producer.Produce(events.BranchDeleted, branch.CompanyID, branch)
	}()
	return nil
}

// Products

func (s *CatalogService) ListProducts(ctx context.Context, userID, companyID string) ([]models.Product, error) {
	if err := s.scope.Authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, companyID)
}

// AddProduct creates a product and materializes a quantity-0 stock row
// for every branch the company currently has. The product insert and
// the stock seeding are independent writes with no rollback.
func (s *CatalogService) AddProduct(ctx context.Context, userID string, product *models.Product) (*models.Product, error) {
	if strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.SKU) == "" {
		return nil, fmt.Errorf("%w: product name and sku required", e.ErrInvalidInput)
	}
	if err := s.scope.Authorize(ctx, userID, product.CompanyID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if err := s.seedStock(ctx, product); err != nil {
		return nil, err
	}
	go func() {
		s.producer.Produce(events.ProductAdded, product.CompanyID, product)
	}()
	return product, nil
}

func (s *CatalogService) seedStock(ctx context.Context, product *models.Product) error {
	branches, err := s.repo.ListBranches(ctx, product.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to list branches for stock seeding: %w", err)
	}
	for _, branch := range branches {
		stock := &models.Stock{
			ProductID: product.ID,
			BranchID:  branch.ID,
			Quantity:  0,
			CompanyID: product.CompanyID,
		}
		if err := s.repo.CreateStock(ctx, stock); err != nil {
			return fmt.Errorf("failed to seed stock row: %w", err)
		}
	}
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, userID string, update *models.ProductUpdate) (*models.Product, error) {
	product, err := s.repo.GetProduct(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	if err := s.scope.Authorize(ctx, userID, product.CompanyID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, update); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetProduct(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	go func() {
		s.producer.Produce(events.ProductUpdated, updated.CompanyID, updated)
	}()
	return updated, nil
}

// DeleteProduct removes the product and its stock rows.
func (s *CatalogService) DeleteProduct(ctx context.Context, userID string, id uint) error {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.scope.Authorize(ctx, userID, product.CompanyID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	go func() {
		s.producer.Produce(events.ProductDeleted, product.CompanyID, product)
	}()
	return nil
}

// Stock

func (s *CatalogService) ListStock(ctx context.Context, userID, companyID string) ([]models.Stock, error) {
	if err := s.scope.Authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListStock(ctx, companyID)
}

// SetStockQuantity updates the quantity of one (product, branch) row.
// Quantity bounds are a form concern; the gateway accepts what it gets.
func (s *CatalogService) SetStockQuantity(ctx context.Context, userID, companyID string, productID, branchID uint, quantity int) error {
	if err := s.scope.Authorize(ctx, userID, companyID); err != nil {
		return err
	}
	if err := s.repo.SetStockQuantity(ctx, productID, branchID, quantity); err != nil {
		return err
	}
	go func() {
		s.producer.Produce(events.StockUpdated, companyID, map[string]any{
			"product_id": productID,
			"branch_id":  branchID,
			"quantity":   quantity,
		})
	}()
	return nil
}

// Catalog configuration

// GetCatalogConfig returns the company's catalog configuration, or nil
// when none has been saved yet.
func (s *CatalogService) GetCatalogConfig(ctx context.Context, userID, companyID string) (*models.CatalogConfig, error) {
	if err := s.scope.Authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	cfg, err := s.repo.GetCatalogConfig(ctx, companyID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cfg, nil
}

func (s *CatalogService) SaveCatalogConfig(ctx context.Context, userID string, cfg *models.CatalogConfig) error {
	if err := s.scope.Authorize(ctx, userID, cfg.CompanyID); err != nil {
		return err
	}
	return s.repo.SaveCatalogConfig(ctx, cfg)
}

// Import

// ImportRow is one parsed line of a product import file.
type ImportRow struct {
	Name         string
	SKU          string
	Description  string
	CustomFields models.CustomFields
}

// ImportReport summarizes an import run.
type ImportReport struct {
	TotalRows int
	Created   int
	Warnings  []string
}

// ImportProducts bulk-inserts the parsed rows, seeding zero-quantity
// stock per existing branch for each. Rows are processed sequentially;
// a failing row stops the run with whatever was already written kept.
func (s *CatalogService) ImportProducts(ctx context.Context, userID, companyID string, rows []ImportRow) (*ImportReport, error) {
	if err := s.scope.Authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}

	report := &ImportReport{TotalRows: len(rows)}
	for i, row := range rows {
		if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.SKU) == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("row %d: missing name or sku, skipping", i+1))
			continue
		}
		product := &models.Product{
			Name:         row.Name,
			SKU:          row.SKU,
			Description:  row.Description,
			CustomFields: row.CustomFields,
			CompanyID:    companyID,
		}
		if err := s.repo.CreateProduct(ctx, product); err != nil {
			return report, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := s.seedStock(ctx, product); err != nil {
			return report, fmt.Errorf("row %d: %w", i+1, err)
		}
		report.Created++
	}

	go func() {
		s.producer.Produce(events.ProductsImported, companyID, report)
	}()
	return report, nil
}
