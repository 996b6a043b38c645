package controller

import (
	"context"
	"testing"

	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCompany(t *testing.T) {
	svc, producer := newTestEnv(t)
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, testUserID, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, "acme-corp-id", company.ID)
	assert.Equal(t, testUserID, company.RootAdminID)

	// The creator is granted access.
	companies, err := svc.Company.ListForUser(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Corp", companies[0].Name)

	// Default modules are seeded.
	installs, err := svc.Company.ListModules(ctx, testUserID)
	require.NoError(t, err)
	names := []string{}
	for _, install := range installs {
		names = append(names, install.Name)
	}
	assert.ElementsMatch(t, []string{models.ModuleStockControl, models.ModulePhysicalLocations}, names)

	producer.waitFor(t, events.CompanyCreated)
}

func TestCreateCompanyValidation(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := svc.Company.Create(ctx, "", "Acme")
	assert.ErrorIs(t, err, e.ErrNoAuthenticatedUser)

	_, err = svc.Company.Create(ctx, testUserID, "   ")
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestCreateCompanySlugCollision(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	first, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)
	second, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	assert.Equal(t, "acme-id", first.ID)
	assert.Equal(t, "acme-id-2", second.ID)
}

func TestListForUserIsScoped(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	companies, err := svc.Company.ListForUser(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, companies, "a user without grants sees no companies")
}

func TestUpdateCompanyUnauthorized(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.Company.Update(ctx, "intruder", &models.CompanyUpdate{ID: company.ID, Name: &name})
	assert.ErrorIs(t, err, e.ErrUnauthorized)
}

func TestUpdateCompanyRefreshesListing(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	// Prime the per-user cache.
	_, err = svc.Company.ListForUser(ctx, testUserID)
	require.NoError(t, err)

	name := "Acme Renamed"
	updated, err := svc.Company.Update(ctx, testUserID, &models.CompanyUpdate{ID: company.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Renamed", updated.Name)

	companies, err := svc.Company.ListForUser(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Renamed", companies[0].Name)
}

func TestUpdateCompanyNotFound(t *testing.T) {
	svc, _ := newTestEnv(t)

	name := "Name"
	_, err := svc.Company.Update(context.Background(), testUserID, &models.CompanyUpdate{ID: "missing-id", Name: &name})
	assert.ErrorIs(t, err, e.ErrUnauthorized, "a company outside the visible set is indistinguishable from a missing one")
}

func TestDeleteCompany(t *testing.T) {
	svc, producer := newTestEnv(t)
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	require.NoError(t, svc.Company.Delete(ctx, testUserID, company.ID))

	companies, err := svc.Company.ListForUser(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, companies)

	producer.waitFor(t, events.CompanyDeleted)
}

func TestInstallModuleIdempotent(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	first, err := svc.Company.InstallModule(ctx, testUserID, company.ID, "Reportes")
	require.NoError(t, err)
	second, err := svc.Company.InstallModule(ctx, testUserID, company.ID, "Reportes")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "second install returns the existing row")

	installs, err := svc.Company.ListModules(ctx, testUserID)
	require.NoError(t, err)
	count := 0
	for _, install := range installs {
		if install.Name == "Reportes" {
			count++
		}
	}
	assert.Equal(t, 1, count, "exactly one install row per (company, module)")
}

func TestInstallModuleValidation(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	_, err = svc.Company.InstallModule(ctx, testUserID, company.ID, " ")
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = svc.Company.InstallModule(ctx, "intruder", company.ID, "Reportes")
	assert.ErrorIs(t, err, e.ErrUnauthorized)
}
