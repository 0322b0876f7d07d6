package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const minPasswordLen = 8

// UserServiceImpl implements ports.UserService.
type UserServiceImpl struct {
	userRepo ports.UserRepository
	wallet   ports.WalletService
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
	log      zerolog.Logger
}

// NewUserService creates a new UserServiceImpl.
func NewUserService(
	userRepo ports.UserRepository,
	wallet ports.WalletService,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		wallet:   wallet,
		hashSvc:  hashSvc,
		tokenSvc: tokenSvc,
		log:      log,
	}
}

// Register creates an account. Customers get their wallet right away.
func (s *UserServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = domain.NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = domain.UserRoleCustomer
	}

	switch {
	case req.Username == "":
		return nil, apperror.Validation("username is required")
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return nil, apperror.Validation("a valid email is required")
	case len(req.Password) < minPasswordLen:
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	case !req.Role.Valid():
		return nil, apperror.Validation("role must be ADMIN or CUSTOMER")
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PhoneNumber:  req.PhoneNumber,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, apperror.Conflict("username or email already exists")
		}
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	if user.IsCustomer() {
		// The wallet is also created lazily on first access, so a failure
		// here does not fail the registration.
		if _, err := s.wallet.GetOrCreateWallet(ctx, user.ID); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create wallet on registration")
		}
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("user registered")

	return user, nil
}

// Login validates credentials and returns a JWT token.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}
	return user, nil
}

// UpdateProfile changes names and phone number. Nil fields are left alone;
// an empty phone number clears it.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, update ports.ProfileUpdate) (*domain.User, error) {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.PhoneNumber != nil {
		if phone := strings.TrimSpace(*update.PhoneNumber); phone != "" {
			user.PhoneNumber = &phone
		} else {
			user.PhoneNumber = nil
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update user: %w", err))
	}
	return user, nil
}
