// Package access computes which companies the current user may see.
// Every company-scoped read goes through it; the only exception is the
// user-administration listing, which is globally visible.
package access

import (
	"context"
	"fmt"

	e "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/models"
)

// GrantSource supplies the user/company grant rows the scope is built from.
type GrantSource interface {
	ListGrantsForUser(ctx context.Context, userID string) ([]models.CompanyGrant, error)
}

// Scope answers visibility questions for a user.
type Scope struct {
	grants GrantSource
}

func NewScope(grants GrantSource) *Scope {
	return &Scope{grants: grants}
}

// VisibleCompanyIDs returns the ids of every company the user holds a
// grant for, in grant order. A user without grants sees nothing.
func (s *Scope) VisibleCompanyIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, e.ErrNoAuthenticatedUser
	}
	grants, err := s.grants.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	ids := make([]string, 0, len(grants))
	for _, grant := range grants {
		ids = append(ids, grant.CompanyID)
	}
	return ids, nil
}

// Authorize returns ErrUnauthorized unless the user holds a grant for
// the company.
func (s *Scope) Authorize(ctx context.Context, userID, companyID string) error {
	ids, err := s.VisibleCompanyIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == companyID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", e.ErrUnauthorized, companyID)
}
