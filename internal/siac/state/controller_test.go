package state

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/siacdev/siac/internal/siac/cache"
	"github.com/siacdev/siac/internal/siac/controller"
	"github.com/siacdev/siac/internal/siac/db"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/gateway"
	"github.com/siacdev/siac/internal/siac/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const rootUserID = "user-123"

func newTestController(t *testing.T, latency gateway.Latency) (*Controller, *controller.Services) {
	t.Helper()
	repo, err := db.NewRepository(&db.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, &models.User{ID: rootUserID, Email: "admin.root@siac.com"}))

	logger := zaptest.NewLogger(t)
	svc := controller.NewServices(repo, events.NopProducer{}, cache.New("", "", time.Minute, logger), logger)
	ctrl := NewController(NewStore(logger), gateway.New(svc, latency), rootUserID, logger)
	return ctrl, svc
}

func eventually(t *testing.T, ctrl *Controller, cond func(AppState) bool, msg string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return cond(ctrl.Store().State())
	}, 2*time.Second, 5*time.Millisecond, msg)
}

func TestInitializeLoadsLauncherData(t *testing.T) {
	ctrl, svc := newTestController(t, gateway.NoLatency())
	ctx := context.Background()

	_, err := svc.Company.Create(ctx, rootUserID, "Acme Corp")
	require.NoError(t, err)

	ctrl.Initialize(ctx)

	eventually(t, ctrl, func(s AppState) bool {
		return !s.Loading && len(s.Companies) == 1 && len(s.Modules) == 2 && len(s.Users) == 1
	}, "launcher data should load")
	assert.Equal(t, "acme-corp-id", ctrl.Store().State().Companies[0].ID)
}

func TestOpenCompanyFansOutAndClearsLoading(t *testing.T) {
	ctrl, svc := newTestController(t, gateway.NoLatency())
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, rootUserID, "Acme")
	require.NoError(t, err)
	_, err = svc.Catalog.AddBranch(ctx, rootUserID, &models.Branch{Name: "Centro", CompanyID: company.ID})
	require.NoError(t, err)
	_, err = svc.Catalog.AddProduct(ctx, rootUserID, &models.Product{Name: "Silla", SKU: "S-1", CompanyID: company.ID})
	require.NoError(t, err)

	ctrl.OpenCompany(ctx, company.ID)

	eventually(t, ctrl, func(s AppState) bool {
		return !s.Loading
	}, "fan-out should finish")
	s := ctrl.Store().State()
	assert.Len(t, s.Branches, 1)
	assert.Len(t, s.Products, 1)
	assert.Len(t, s.Stock, 1, "the product was seeded with one zero row")
	assert.Equal(t, ViewBusinessDashboard, s.View)
}

func TestNavigatingAwayDiscardsInFlightReads(t *testing.T) {
	ctrl, svc := newTestController(t, gateway.Latency{Read: 150 * time.Millisecond})
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, rootUserID, "Acme")
	require.NoError(t, err)
	_, err = svc.Catalog.AddBranch(ctx, rootUserID, &models.Branch{Name: "Centro", CompanyID: company.ID})
	require.NoError(t, err)

	ctrl.OpenCompany(ctx, company.ID)
	ctrl.BackToLauncher()

	// Let the delayed reads complete and get discarded.
	time.Sleep(500 * time.Millisecond)

	s := ctrl.Store().State()
	assert.Equal(t, ViewLauncher, s.View)
	assert.Empty(t, s.Branches, "reads issued before navigating away must not land")
	assert.False(t, s.Loading)
}

func TestCreateCompanyThroughController(t *testing.T) {
	ctrl, _ := newTestController(t, gateway.NoLatency())
	ctx := context.Background()

	require.NoError(t, ctrl.CreateCompany(ctx, CompanyForm{Name: "Acme Corp"}))

	eventually(t, ctrl, func(s AppState) bool {
		return !s.Submitting && len(s.Companies) == 1
	}, "company should appear after the write resolves")
	assert.Equal(t, "acme-corp-id", ctrl.Store().State().Companies[0].ID)
}

func TestCreateCompanyValidationFailsFast(t *testing.T) {
	ctrl, _ := newTestController(t, gateway.NoLatency())

	err := ctrl.CreateCompany(context.Background(), CompanyForm{Name: "   "})
	require.Error(t, err)

	s := ctrl.Store().State()
	assert.False(t, s.Submitting)
	assert.NotEmpty(t, s.ErrorMessage)
	assert.Empty(t, s.Companies)
}

func TestSaveBranchAddsToActiveCompany(t *testing.T) {
	ctrl, svc := newTestController(t, gateway.NoLatency())
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, rootUserID, "Acme")
	require.NoError(t, err)
	ctrl.OpenCompany(ctx, company.ID)
	eventually(t, ctrl, func(s AppState) bool { return !s.Loading }, "dashboard should load")

	require.NoError(t, ctrl.SaveBranch(ctx, BranchForm{
		Name:    "Norte",
		Address: "Av. Norte 1",
		Type:    models.BranchWarehouse,
	}))

	eventually(t, ctrl, func(s AppState) bool {
		return !s.Submitting && len(s.Branches) == 1
	}, "branch should appear")

	branches, err := svc.Catalog.ListBranches(ctx, rootUserID, company.ID)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, models.BranchWarehouse, branches[0].Type)
}

func TestSetStockThroughController(t *testing.T) {
	ctrl, svc := newTestController(t, gateway.NoLatency())
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, rootUserID, "Acme")
	require.NoError(t, err)
	branch, err := svc.Catalog.AddBranch(ctx, rootUserID, &models.Branch{Name: "Centro", CompanyID: company.ID})
	require.NoError(t, err)
	product, err := svc.Catalog.AddProduct(ctx, rootUserID, &models.Product{Name: "Silla", SKU: "S-1", CompanyID: company.ID})
	require.NoError(t, err)

	ctrl.OpenCompany(ctx, company.ID)
	eventually(t, ctrl, func(s AppState) bool { return !s.Loading }, "dashboard should load")

	require.NoError(t, ctrl.SetStock(ctx, StockForm{ProductID: product.ID, BranchID: branch.ID, Quantity: 10}))

	eventually(t, ctrl, func(s AppState) bool {
		return !s.Submitting && len(s.Stock) == 1 && s.Stock[0].Quantity == 10
	}, "stock cell should update in place")

	rows, err := svc.Catalog.ListStock(ctx, rootUserID, company.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Quantity)
}

func TestSetStockRejectsNegativeWithoutSubmitting(t *testing.T) {
	ctrl, _ := newTestController(t, gateway.NoLatency())

	err := ctrl.SetStock(context.Background(), StockForm{ProductID: 1, BranchID: 1, Quantity: -5})
	require.Error(t, err)
	assert.False(t, ctrl.Store().State().Submitting)
}

func TestSaveAccessReplacesGrants(t *testing.T) {
	ctrl, svc := newTestController(t, gateway.NoLatency())
	ctx := context.Background()

	acme, err := svc.Company.Create(ctx, rootUserID, "Acme")
	require.NoError(t, err)
	globex, err := svc.Company.Create(ctx, rootUserID, "Globex")
	require.NoError(t, err)

	ctrl.OpenAccessEditor(models.UserWithCompanies{
		User:      models.User{ID: rootUserID},
		Companies: []models.Company{*acme, *globex},
	})
	ctrl.ToggleAccess(acme.ID, false)

	require.NoError(t, ctrl.SaveAccess(ctx))

	eventually(t, ctrl, func(s AppState) bool {
		return s.AccessEdit == nil && !s.Submitting && len(s.Users) == 1
	}, "editor should close and the listing refresh")

	companies, err := svc.Company.ListForUser(ctx, rootUserID)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, globex.ID, companies[0].ID)
}

func TestImportFileThroughController(t *testing.T) {
	ctrl, svc := newTestController(t, gateway.NoLatency())
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, rootUserID, "Acme")
	require.NoError(t, err)
	require.NoError(t, svc.Catalog.SaveCatalogConfig(ctx, rootUserID, &models.CatalogConfig{
		CompanyID: company.ID,
		Fields:    []models.CatalogField{{Key: "talla", Type: models.FieldNumber}},
	}))

	ctrl.OpenCompany(ctx, company.ID)
	eventually(t, ctrl, func(s AppState) bool { return !s.Loading }, "dashboard should load")

	file := "nombre,sku,talla\nSilla,S-1,45\nMesa,M-1,90\n,X-1,10\n"
	require.NoError(t, ctrl.ImportFile(ctx, "productos.csv", strings.NewReader(file)))

	eventually(t, ctrl, func(s AppState) bool {
		return !s.Uploading && len(s.Products) == 2
	}, "import should finish and refresh products")

	s := ctrl.Store().State()
	assert.Equal(t, "2 de 3 productos importados", s.UploadStatus)
	for _, p := range s.Products {
		assert.IsType(t, float64(0), p.CustomFields["talla"], "typed per the catalog config")
	}
}

func TestImportFileRejectsEmptyUpload(t *testing.T) {
	ctrl, _ := newTestController(t, gateway.NoLatency())

	err := ctrl.ImportFile(context.Background(), "vacio.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.False(t, ctrl.Store().State().Uploading)
	assert.NotEmpty(t, ctrl.Store().State().UploadStatus)
}
