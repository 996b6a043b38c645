package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/siacdev/siac/internal/siac/cache"
	"github.com/siacdev/siac/internal/siac/controller"
	"github.com/siacdev/siac/internal/siac/db"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testUserID = "user-123"

func newTestGateway(t *testing.T, latency Latency) *Gateway {
	t.Helper()
	repo, err := db.NewRepository(&db.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.CreateUser(context.Background(), &models.User{
		ID:    testUserID,
		Email: "admin.root@siac.com",
	}))

	logger := zaptest.NewLogger(t)
	svc := controller.NewServices(repo, events.NopProducer{}, cache.New("", "", time.Minute, logger), logger)
	return New(svc, latency)
}

func TestGatewayRoundTrip(t *testing.T) {
	g := newTestGateway(t, NoLatency())
	ctx := context.Background()

	company, err := g.CreateCompany(ctx, testUserID, "Acme").Await(ctx)
	require.NoError(t, err)

	branch, err := g.AddBranch(ctx, testUserID, &models.Branch{Name: "Centro", CompanyID: company.ID}).Await(ctx)
	require.NoError(t, err)

	product, err := g.AddProduct(ctx, testUserID, &models.Product{Name: "Widget", SKU: "W-1", CompanyID: company.ID}).Await(ctx)
	require.NoError(t, err)

	_, err = g.SetStockQuantity(ctx, testUserID, company.ID, product.ID, branch.ID, 10).Await(ctx)
	require.NoError(t, err)

	rows, err := g.ListStock(ctx, testUserID, company.ID).Await(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Quantity)
}

func TestCancelledReadNeverLands(t *testing.T) {
	g := newTestGateway(t, Latency{Read: time.Hour})
	ctx := context.Background()

	d := g.ListCompanies(ctx, testUserID)
	d.Cancel()

	_, err := d.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancelledWriteDoesNotMutate(t *testing.T) {
	repo, err := db.NewRepository(&db.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, &models.User{ID: testUserID, Email: "admin.root@siac.com"}))

	logger := zaptest.NewLogger(t)
	svc := controller.NewServices(repo, events.NopProducer{}, cache.New("", "", time.Minute, logger), logger)

	slow := New(svc, Latency{CompanyCreate: time.Hour})
	d := slow.CreateCompany(ctx, testUserID, "Acme")
	d.Cancel()
	_, err = d.Await(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The same store, read without latency, must not contain the
	// abandoned company.
	fast := New(svc, NoLatency())
	companies, err := fast.ListCompanies(ctx, testUserID).Await(ctx)
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestLatencyScale(t *testing.T) {
	l := DefaultLatency().Scale(0)
	assert.Zero(t, l.Read)
	assert.Zero(t, l.Import)

	l = DefaultLatency().Scale(2)
	assert.Equal(t, 600*time.Millisecond, l.Read)
	assert.Equal(t, 5*time.Second, l.Import)
}

func TestFanOutCompletesIndependently(t *testing.T) {
	g := newTestGateway(t, NoLatency())
	ctx := context.Background()

	company, err := g.CreateCompany(ctx, testUserID, "Acme").Await(ctx)
	require.NoError(t, err)

	branches := g.ListBranches(ctx, testUserID, company.ID)
	products := g.ListProducts(ctx, testUserID, company.ID)
	config := g.GetCatalogConfig(ctx, testUserID, company.ID)

	gotBranches, err := branches.Await(ctx)
	require.NoError(t, err)
	gotProducts, err := products.Await(ctx)
	require.NoError(t, err)
	gotConfig, err := config.Await(ctx)
	require.NoError(t, err)

	assert.Empty(t, gotBranches)
	assert.Empty(t, gotProducts)
	assert.Nil(t, gotConfig)
}
