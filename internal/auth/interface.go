package auth

import (
	"context"

	"github.com/yatube/backend/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations
// used by the HTTP layer
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	IssueSession(user *models.User) (*Session, error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)

	ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) (*models.PasswordReset, error)
	CheckResetToken(ctx context.Context, token string) (*models.PasswordReset, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
