package auth

import (
	"context"
	"errors"
	"fmt"

	siacerrors "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/models"
	"go.uber.org/zap"
)

// The development identity every session authenticates as. There is no
// password verification and no registration; the environment emulates
// an already-signed-in root administrator.
const (
	RootUserID    = "user-123"
	RootUserEmail = "admin.root@siac.com"
)

// UserStore is the slice of the repository the authenticator needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Authenticator resolves every login to the seeded root user and issues
// tokens for it.
type Authenticator struct {
	store  UserStore
	secret string
	logger *zap.Logger
}

func NewAuthenticator(store UserStore, secret string, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		store:  store,
		secret: secret,
		logger: logger.Named("auth"),
	}
}

// EnsureRootUser seeds the fixed identity. Safe to call on every start.
func (a *Authenticator) EnsureRootUser(ctx context.Context) error {
	_, err := a.store.GetUser(ctx, RootUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, siacerrors.ErrNotFound) {
		return fmt.Errorf("look up root user: %w", err)
	}
	a.logger.Info("seeding root user", zap.String("user_id", RootUserID))
	return a.store.CreateUser(ctx, &models.User{ID: RootUserID, Email: RootUserEmail})
}

// Login ignores the credentials and returns the root user with a fresh
// token. It mirrors a hosted identity provider that has already
// authenticated the session.
func (a *Authenticator) Login(ctx context.Context, email, _ string) (*models.User, string, error) {
	user, err := a.store.GetUser(ctx, RootUserID)
	if err != nil {
		return nil, "", fmt.Errorf("root user not seeded: %w", err)
	}
	token, err := GenerateToken(user.ID, a.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	a.logger.Info("login", zap.String("requested_email", email), zap.String("user_id", user.ID))
	return user, token, nil
}
