package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/repository"
	"github.com/prperemyshlev/mbti-quiz/internal/utils"
)

const meterName = "github.com/prperemyshlev/mbti-quiz/internal/service"

// authService implements AuthService interface
type authService struct {
	userRepo       repository.UserRepository
	credentialRepo repository.CredentialRepository
	jwtManager     *utils.JWTManager
	bcryptCost     int
	logger         *zap.Logger

	refreshGroup   singleflight.Group
	refreshCounter metric.Int64Counter
	dummyHash      func() (string, error)
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	credentialRepo repository.CredentialRepository,
	jwtManager *utils.JWTManager,
	bcryptCost int,
	logger *zap.Logger,
) AuthService {
	refreshCounter, err := otel.Meter(meterName).Int64Counter(
		"auth.refresh",
		metric.WithDescription("Token refresh attempts by outcome"),
	)
	if err != nil {
		logger.Warn("failed to create refresh counter", zap.Error(err))
	}

	return &authService{
		userRepo:       userRepo,
		credentialRepo: credentialRepo,
		jwtManager:     jwtManager,
		bcryptCost:     bcryptCost,
		logger:         logger,
		refreshCounter: refreshCounter,
		dummyHash: sync.OnceValues(func() (string, error) {
			return utils.HashPassword("not-a-real-password", bcryptCost)
		}),
	}
}

// Register registers a new user
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error) {
	email := utils.SanitizeEmail(req.Email)
	nickname := strings.TrimSpace(req.Nickname)

	// Validate email format
	if !utils.ValidateEmail(email) {
		return nil, newValidationError("email", "invalid email format")
	}

	// Validate password
	if !utils.ValidatePassword(req.Password) {
		return nil, newValidationError("password", fmt.Sprintf("password must be at least %d characters and at most %d bytes long", utils.MinPasswordLength, utils.MaxPasswordBytes))
	}

	if !utils.ValidateNickname(nickname) {
		return nil, newValidationError("nickname", fmt.Sprintf("nickname must be %d to %d characters long", utils.MinNicknameLength, utils.MaxNicknameLength))
	}

	// Check if user already exists
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	// Hash password
	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:    &email,
		Nickname: nickname,
	}

	if err := s.userRepo.CreateWithCredential(ctx, user, passwordHash); err != nil {
		// Lost a race with another registration for the same email
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.Issue(user)
}

// Login authenticates a user
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error) {
	email := utils.SanitizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, newValidationError("email", "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.spendPasswordCheck(req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	credential, err := s.credentialRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		// Social-only accounts have no password
		if errors.Is(err, repository.ErrNotFound) {
			s.spendPasswordCheck(req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, credential.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.Issue(user)
}

// Refresh validates the refresh token, re-reads the user and rotates both tokens
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		s.recordRefresh(ctx, "missing")
		return nil, ErrUnauthorized
	}

	// Requests racing with the same cookie share one lookup and one new pair.
	// The shared call must not die with whichever request started it.
	v, err, shared := s.refreshGroup.Do(hashToken(refreshToken), func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx), refreshToken)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.Debug("refresh coalesced")
	}

	return v.(*AuthResult), nil
}

func (s *authService) refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.recordRefresh(ctx, "invalid")
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordRefresh(ctx, "user_gone")
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	result, err := s.Issue(user)
	if err != nil {
		return nil, err
	}

	s.recordRefresh(ctx, "success")
	return result, nil
}

// CurrentUser returns the up-to-date user behind an access token
func (s *authService) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.ValidateToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ValidateToken validates an access token
func (s *authService) ValidateToken(_ context.Context, token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	return claims, nil
}

// Issue signs a fresh token pair for the user
func (s *authService) Issue(user *domain.User) (*AuthResult, error) {
	tokens, err := s.jwtManager.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// spendPasswordCheck runs a bcrypt comparison that always fails so that
// unknown users cost as much as wrong passwords.
func (s *authService) spendPasswordCheck(password string) {
	hash, err := s.dummyHash()
	if err != nil {
		s.logger.Error("failed to prepare dummy hash", zap.Error(err))
		return
	}
	_ = utils.CheckPasswordHash(password, hash)
}

func (s *authService) recordRefresh(ctx context.Context, outcome string) {
	if s.refreshCounter == nil {
		return
	}
	s.refreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// hashToken hashes a token using SHA256
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
