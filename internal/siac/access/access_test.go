package access

import (
	"context"
	"testing"

	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGrantSource struct {
	grants map[string][]models.CompanyGrant
}

func (f *fakeGrantSource) ListGrantsForUser(_ context.Context, userID string) ([]models.CompanyGrant, error) {
	return f.grants[userID], nil
}

func TestVisibleCompanyIDs(t *testing.T) {
	scope := NewScope(&fakeGrantSource{grants: map[string][]models.CompanyGrant{
		"user-123": {
			{UserID: "user-123", CompanyID: "acme-id"},
			{UserID: "user-123", CompanyID: "globex-id"},
		},
	}})

	ids, err := scope.VisibleCompanyIDs(context.Background(), "user-123")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme-id", "globex-id"}, ids)

	ids, err = scope.VisibleCompanyIDs(context.Background(), "user-999")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVisibleCompanyIDsRequiresUser(t *testing.T) {
	scope := NewScope(&fakeGrantSource{})

	_, err := scope.VisibleCompanyIDs(context.Background(), "")
	assert.ErrorIs(t, err, e.ErrNoAuthenticatedUser)
}

func TestAuthorize(t *testing.T) {
	scope := NewScope(&fakeGrantSource{grants: map[string][]models.CompanyGrant{
		"user-123": {{UserID: "user-123", CompanyID: "acme-id"}},
	}})

	assert.NoError(t, scope.Authorize(context.Background(), "user-123", "acme-id"))
	assert.ErrorIs(t, scope.Authorize(context.Background(), "user-123", "globex-id"), e.ErrUnauthorized)
}
