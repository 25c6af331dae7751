package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("a user with that email already exists")
	ErrUsernameExists     = errors.New("a user with that username already exists")
	ErrInvalidCredentials = errors.New("please enter a correct username and password")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("yatube-unknown-user"), bcrypt.DefaultCost)

// DefaultSessionTTL matches a two-week browser session
const DefaultSessionTTL = 14 * 24 * time.Hour

// ResetTokenTTL bounds how long a mailed reset link stays valid
const ResetTokenTTL = time.Hour

// Service handles accounts, sessions and password resets
type Service struct {
	jwtSecret  []byte
	sessionTTL time.Duration
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	now        func() time.Time
}

// NewService creates a new authentication service
func NewService(jwtSecret []byte, sessionTTL time.Duration, users repository.UserRepository, resets repository.PasswordResetRepository) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		users:      users,
		resets:     resets,
		now:        time.Now,
	}
}

// RegisterRequest is a signup form submission
type RegisterRequest struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// Session is a signed session token and when it stops being accepted
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Register creates a user with a bcrypt-hashed password
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	taken, err := s.users.UsernameTaken(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if taken {
		return nil, ErrUsernameExists
	}

	if req.Email != "" {
		taken, err = s.users.EmailTaken(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if taken {
			return nil, ErrUserExists
		}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateSignup(ctx, req)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Log.Info("User registered", logger.WithUserID(user.ID), logger.WithUsername(user.Username))
	return user, nil
}

// duplicateSignup tells which unique column a concurrent signup won on
func (s *Service) duplicateSignup(ctx context.Context, req RegisterRequest) error {
	if taken, err := s.users.UsernameTaken(ctx, req.Username); err == nil && !taken && req.Email != "" {
		return ErrUserExists
	}
	return ErrUsernameExists
}

// Authenticate checks a username/password pair
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		// burn the same time as a real comparison
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		logger.Log.Warn("Failed to record last login", logger.WithUserID(user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	return user, nil
}

// IssueSession signs a session token for user
func (s *Service) IssueSession(user *models.User) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)

	claims := jwt.MapClaims{
		"user_id":  strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"is_admin": user.IsAdmin,
		"pwd":      s.passwordStamp(user),
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{Token: tokenString, ExpiresAt: expiresAt}, nil
}

// ValidateSession verifies a session token and loads its user fresh from the
// database, so deleted accounts, revoked admin rights and password changes
// take effect at once
func (s *Service) ValidateSession(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidSession
	}
	userID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return nil, ErrInvalidSession
	}

	user, err := s.users.GetUser(ctx, uint(userID))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	// a password change or reset ends every session issued before it
	stamp, _ := claims["pwd"].(string)
	if !hmac.Equal([]byte(stamp), []byte(s.passwordStamp(user))) {
		return nil, ErrInvalidSession
	}
	return user, nil
}

// passwordStamp ties a session to the password hash it was issued under
func (s *Service) passwordStamp(user *models.User) string {
	mac := hmac.New(sha256.New, s.jwtSecret)
	mac.Write([]byte("session-password:"))
	mac.Write([]byte(user.PasswordHash))
	return hex.EncodeToString(mac.Sum(nil))[:32]
}

// ChangePassword replaces the password after checking the current one.
// Existing sessions stop validating; the caller should issue a new one.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// RequestPasswordReset creates a reset token for the account with that email.
// It returns nil, nil when no account matches so callers cannot tell the difference.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*models.PasswordReset, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", ""),
		ExpiresAt: s.now().Add(ResetTokenTTL),
	}
	if err := s.resets.CreateReset(ctx, reset); err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}
	reset.User = *user

	return reset, nil
}

// CheckResetToken returns the reset record if the token can still be redeemed
func (s *Service) CheckResetToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	reset, err := s.resets.GetResetByToken(ctx, token)
	if errors.Is(err, repository.ErrResetNotFound) {
		return nil, ErrInvalidResetToken
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if reset.Expired(s.now()) {
		return nil, ErrInvalidResetToken
	}
	return reset, nil
}

// ResetPassword redeems a reset token and sets the new password. The token is
// claimed and the password written in one transaction, so of several
// concurrent redemptions exactly one succeeds.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.CheckResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = s.resets.RedeemReset(ctx, reset, hash)
	if errors.Is(err, repository.ErrResetRedeemed) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}

	logger.Log.Info("Password reset", logger.WithUserID(reset.UserID))
	return nil
}

// HashPassword bcrypt-hashes a password
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
