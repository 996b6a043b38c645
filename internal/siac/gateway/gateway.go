// Package gateway exposes the controller services as deferred
// operations with simulated network latency, mirroring the shape a
// remote backend would present. Every operation completes
// asynchronously and can be cancelled before it runs.
package gateway

import (
	"context"
	"time"

	"github.com/siacdev/siac/internal/siac/async"
	"github.com/siacdev/siac/internal/siac/controller"
	"github.com/siacdev/siac/internal/siac/models"
)

// Latency holds the simulated delay per operation class.
type Latency struct {
	Read          time.Duration
	Write         time.Duration
	CompanyCreate time.Duration
	UserListing   time.Duration
	AccessReplace time.Duration
	Import        time.Duration
}

// DefaultLatency mirrors the delays of the hosted backend being
// emulated.
func DefaultLatency() Latency {
	return Latency{
		Read:          300 * time.Millisecond,
		Write:         400 * time.Millisecond,
		CompanyCreate: 500 * time.Millisecond,
		UserListing:   500 * time.Millisecond,
		AccessReplace: 600 * time.Millisecond,
		Import:        2500 * time.Millisecond,
	}
}

// NoLatency disables the simulated delays. Used by tests and by the
// HTTP surface, where real transport latency already exists.
func NoLatency() Latency {
	return Latency{}
}

// Scale multiplies every delay by factor.
func (l Latency) Scale(factor float64) Latency {
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) * factor)
	}
	return Latency{
		Read:          scale(l.Read),
		Write:         scale(l.Write),
		CompanyCreate: scale(l.CompanyCreate),
		UserListing:   scale(l.UserListing),
		AccessReplace: scale(l.AccessReplace),
		Import:        scale(l.Import),
	}
}

// Gateway wraps the services in deferred completions.
type Gateway struct {
	svc     *controller.Services
	latency Latency
}

func New(svc *controller.Services, latency Latency) *Gateway {
	return &Gateway{svc: svc, latency: latency}
}

// Reads

func (g *Gateway) ListCompanies(ctx context.Context, userID string) *async.Deferred[[]models.Company] {
	return async.Defer(ctx, g.latency.Read, func(ctx context.Context) ([]models.Company, error) {
		return g.svc.Company.ListForUser(ctx, userID)
	})
}

func (g *Gateway) ListModules(ctx context.Context, userID string) *async.Deferred[[]models.ModuleInstall] {
	return async.Defer(ctx, g.latency.Read, func(ctx context.Context) ([]models.ModuleInstall, error) {
		return g.svc.Company.ListModules(ctx, userID)
	})
}

func (g *Gateway) ListUsers(ctx context.Context) *async.Deferred[[]models.UserWithCompanies] {
	return async.Defer(ctx, g.latency.UserListing, func(ctx context.Context) ([]models.UserWithCompanies, error) {
		return g.svc.Access.ListUsersWithCompanies(ctx)
	})
}

func (g *Gateway) ListBranches(ctx context.Context, userID, companyID string) *async.Deferred[[]models.Branch] {
	return async.Defer(ctx, g.latency.Read, func(ctx context.Context) ([]models.Branch, error) {
		return g.svc.Catalog.ListBranches(ctx, userID, companyID)
	})
}

func (g *Gateway) ListProducts(ctx context.Context, userID, companyID string) *async.Deferred[[]models.Product] {
	return async.Defer(ctx, g.latency.Read, func(ctx context.Context) ([]models.Product, error) {
		return g.svc.Catalog.ListProducts(ctx, userID, companyID)
	})
}

func (g *Gateway) ListStock(ctx context.Context, userID, companyID string) *async.Deferred[[]models.Stock] {
	return async.Defer(ctx, g.latency.Read, func(ctx context.Context) ([]models.Stock, error) {
		return g.svc.Catalog.ListStock(ctx, userID, companyID)
	})
}

func (g *Gateway) GetCatalogConfig(ctx context.Context, userID, companyID string) *async.Deferred[*models.CatalogConfig] {
	return async.Defer(ctx, g.latency.Read, func(ctx context.Context) (*models.CatalogConfig, error) {
		return g.svc.Catalog.GetCatalogConfig(ctx, userID, companyID)
	})
}

// Writes

func (g *Gateway) CreateCompany(ctx context.Context, userID, name string) *async.Deferred[*models.Company] {
	return async.Defer(ctx, g.latency.CompanyCreate, func(ctx context.Context) (*models.Company, error) {
		return g.svc.Company.Create(ctx, userID, name)
	})
}

func (g *Gateway) UpdateCompany(ctx context.Context, userID string, update *models.CompanyUpdate) *async.Deferred[*models.Company] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (*models.Company, error) {
		return g.svc.Company.Update(ctx, userID, update)
	})
}

func (g *Gateway) DeleteCompany(ctx context.Context, userID, id string) *async.Deferred[struct{}] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.svc.Company.Delete(ctx, userID, id)
	})
}

func (g *Gateway) AddBranch(ctx context.Context, userID string, branch *models.Branch) *async.Deferred[*models.Branch] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (*models.Branch, error) {
		return g.svc.Catalog.AddBranch(ctx, userID, branch)
	})
}

func (g *Gateway) UpdateBranch(ctx context.Context, userID string, update *models.BranchUpdate) *async.Deferred[*models.Branch] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (*models.Branch, error) {
		return g.svc.Catalog.UpdateBranch(ctx, userID, update)
	})
}

func (g *Gateway) DeleteBranch(ctx context.Context, userID string, id uint) *async.Deferred[struct{}] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.svc.Catalog.DeleteBranch(ctx, userID, id)
	})
}

func (g *Gateway) AddProduct(ctx context.Context, userID string, product *models.Product) *async.Deferred[*models.Product] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (*models.Product, error) {
		return g.svc.Catalog.AddProduct(ctx, userID, product)
	})
}

func (g *Gateway) UpdateProduct(ctx context.Context, userID string, update *models.ProductUpdate) *async.Deferred[*models.Product] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (*models.Product, error) {
		return g.svc.Catalog.UpdateProduct(ctx, userID, update)
	})
}

func (g *Gateway) DeleteProduct(ctx context.Context, userID string, id uint) *async.Deferred[struct{}] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.svc.Catalog.DeleteProduct(ctx, userID, id)
	})
}

func (g *Gateway) SetStockQuantity(ctx context.Context, userID, companyID string, productID, branchID uint, quantity int) *async.Deferred[struct{}] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.svc.Catalog.SetStockQuantity(ctx, userID, companyID, productID, branchID, quantity)
	})
}

func (g *Gateway) InstallModule(ctx context.Context, userID, companyID, name string) *async.Deferred[*models.ModuleInstall] {
	return async.Defer(ctx, g.latency.Write, func(ctx context.Context) (*models.ModuleInstall, error) {
		return g.svc.Company.InstallModule(ctx, userID, companyID, name)
	})
}

func (g *Gateway) UpdateUserAccess(ctx context.Context, userID string, companyIDs []string) *async.Deferred[struct{}] {
	return async.Defer(ctx, g.latency.AccessReplace, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.svc.Access.UpdateUserAccess(ctx, userID, companyIDs)
	})
}

func (g *Gateway) ImportProducts(ctx context.Context, userID, companyID string, rows []controller.ImportRow) *async.Deferred[*controller.ImportReport] {
	return async.Defer(ctx, g.latency.Import, func(ctx context.Context) (*controller.ImportReport, error) {
		return g.svc.Catalog.ImportProducts(ctx, userID, companyID, rows)
	})
}
