package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/models"
	"github.com/liuxin327/heartbeat/pkg/crypto"
	apperrors "github.com/liuxin327/heartbeat/pkg/errors"
)

const (
	inviteCodeLength   = 8
	inviteCodeAttempts = 10
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrUsernameTaken is returned when registering with an existing username.
	ErrUsernameTaken = apperrors.New("USERNAME_TAKEN", "Username already registered", http.StatusBadRequest)
)

// RegisterInput describes the fields accepted when registering a user.
type RegisterInput struct {
	Username string
	Password string
}

// UserService manages account registration, lookup, and credential checks.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Register provisions a new user with a hashed password and a unique
// invitation code.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperrors.NewBadRequest("username is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       username,
		Password:       hashed,
		InvitationCode: code,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the supplied credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// GetByUsername loads a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// Partner resolves the user's paired account, or nil when unpaired.
func (s *UserService) Partner(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.PartnerID == nil {
		return nil, nil
	}
	return s.GetByID(ctx, *user.PartnerID)
}

// uniqueInviteCode generates an invitation code that no existing user holds.
// The unique index on the column remains the final arbiter under concurrency.
func (s *UserService) uniqueInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := crypto.GenerateInviteCode(inviteCodeLength)
		if err != nil {
			return "", fmt.Errorf("user service: generate invitation code: %w", err)
		}

		var count int64
		err = s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("invitation_code = ?", code).
			Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("user service: check invitation code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("user service: could not generate a unique invitation code")
}
