package controller

import (
	"context"
	"testing"

	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUserAccessFullReplacement(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	a, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)
	b, err := svc.Company.Create(ctx, testUserID, "Globex")
	require.NoError(t, err)
	c, err := svc.Company.Create(ctx, testUserID, "Initech")
	require.NoError(t, err)

	// Replace the creator's grants {a, b, c} with exactly {c}.
	require.NoError(t, svc.Access.UpdateUserAccess(ctx, testUserID, []string{c.ID}))

	companies, err := svc.Company.ListForUser(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, c.ID, companies[0].ID)

	// Prior grants not in the set disappeared.
	for _, gone := range []string{a.ID, b.ID} {
		err := svc.Company.Delete(ctx, testUserID, gone)
		assert.ErrorIs(t, err, e.ErrUnauthorized)
	}
}

func TestUpdateUserAccessUnknownUser(t *testing.T) {
	svc, _ := newTestEnv(t)

	err := svc.Access.UpdateUserAccess(context.Background(), "ghost", []string{"acme-id"})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestUpdateUserAccessRequiresID(t *testing.T) {
	svc, _ := newTestEnv(t)

	err := svc.Access.UpdateUserAccess(context.Background(), "", nil)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestListUsersWithCompaniesIsGlobal(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	company, err := svc.Company.Create(ctx, testUserID, "Acme")
	require.NoError(t, err)

	// Any authenticated caller sees every user and its grants; the
	// administration listing is deliberately unscoped.
	users, err := svc.Access.ListUsersWithCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, testUserID, users[0].ID)
	require.Len(t, users[0].Companies, 1)
	assert.Equal(t, company.ID, users[0].Companies[0].ID)
}
