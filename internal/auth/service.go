package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-directory/internal/core/events"
	"github.com/frahmantamala/employee-directory/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	validator      *validation.Validator
	publisher      EventPublisher
	bcryptCost     int
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, tokenGen TokenGenerator, v *validation.Validator, publisher EventPublisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		validator:      v,
		publisher:      publisher,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Login verifies credentials and issues a token. Unknown users and wrong
// passwords fail with the same error.
func (s *Service) Login(ctx context.Context, dto LoginDTO, ipAddress string) (*LoginResult, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		s.logger.Info("login rejected: unknown username", "username", dto.Username)
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		s.logger.Info("login rejected: password mismatch", "user_id", user.ID)
		return nil, internal.ErrInvalidCredentials
	}

	token, _, err := s.tokenGenerator.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewUserLoggedInEvent(user.ID, ipAddress)); err != nil {
			s.logger.Warn("failed to publish login event", "user_id", user.ID, "error", err)
		}
	}

	if err := s.userRepo.TouchUpdatedAt(ctx, user.ID); err != nil {
		s.logger.Warn("failed to touch user updated_at", "user_id", user.ID, "error", err)
	}

	return &LoginResult{
		Token: token,
		User: UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	}, nil
}

// Register creates a user without a role. Roles are granted by an administrator.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (int64, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return 0, err
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return 0, internal.NewInternalError("failed to hash password", err)
	}

	user := &userDatamodel.User{
		Username: dto.Username,
		Password: hash,
		Email:    dto.Email,
		Phone:    dto.Phone,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return 0, internal.ErrDuplicateUser
		}
		return 0, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user.ID, nil
}

// ValidateAccessToken maps token failures to ErrInvalidToken
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.tokenGenerator.ValidateToken(tokenString)
	if err != nil {
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	return claims, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
