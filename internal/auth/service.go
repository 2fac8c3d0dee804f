package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hugh/go-contacts/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnverifiedUser     = errors.New("email is not verified")
)

// VerificationNotifier delivers the verification link for a freshly
// registered user.
type VerificationNotifier interface {
	NotifyVerification(ctx context.Context, user *models.User) error
}

type Service struct {
	db       *gorm.DB
	jwt      *JWTService
	hasher   *PasswordHasher
	notifier VerificationNotifier
	logger   *slog.Logger
}

func NewService(db *gorm.DB, jwt *JWTService, hasher *PasswordHasher, notifier VerificationNotifier, logger *slog.Logger) *Service {
	if hasher == nil {
		hasher = defaultHasher
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		jwt:      jwt,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
	}
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token string
	User  *models.User
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := models.NormalizeEmail(input.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("registered user", "user_id", user.ID)

	if s.notifier != nil {
		if err := s.notifier.NotifyVerification(ctx, &user); err != nil {
			s.logger.Error("failed to dispatch verification email", "user_id", user.ID, "error", err)
		}
	}

	return &user, nil
}

// VerifyEmail marks the user identified by token as verified. The token is
// the user's ID as sent in the verification link.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("is_verified", true).Error; err != nil {
		return nil, fmt.Errorf("verifying user: %w", err)
	}
	user.IsVerified = true

	s.logger.Info("verified user email", "user_id", user.ID)
	return user, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.Burn(input.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrUnverifiedUser
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	return &LoginResult{
		Token: token,
		User:  &user,
	}, nil
}

// SetAvatar replaces the avatar reference for userID.
func (s *Service) SetAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error) {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("avatar", url)
	if result.Error != nil {
		return nil, fmt.Errorf("updating avatar: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetUserByID(ctx, userID)
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}
