package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/oauth"
	"github.com/prperemyshlev/mbti-quiz/internal/repository"
	"github.com/prperemyshlev/mbti-quiz/internal/utils"
)

type oauthService struct {
	provider    oauth.Provider
	userRepo    repository.UserRepository
	socialRepo  repository.SocialAccountRepository
	authService AuthService
	logger      *zap.Logger
}

// NewOAuthService creates the social login service for one provider
func NewOAuthService(
	provider oauth.Provider,
	userRepo repository.UserRepository,
	socialRepo repository.SocialAccountRepository,
	authService AuthService,
	logger *zap.Logger,
) OAuthService {
	return &oauthService{
		provider:    provider,
		userRepo:    userRepo,
		socialRepo:  socialRepo,
		authService: authService,
		logger:      logger,
	}
}

// Start creates a fresh state and the provider URL to send the browser to
func (s *oauthService) Start(_ context.Context, redirect string) (*OAuthStart, error) {
	state, err := utils.GenerateState()
	if err != nil {
		return nil, err
	}

	return &OAuthStart{
		AuthURL:  s.provider.AuthCodeURL(state),
		State:    state,
		Redirect: utils.SafeRedirectPath(redirect),
	}, nil
}

// Callback finishes the authorization-code flow. Every failure is an *OAuthFlowError.
func (s *oauthService) Callback(ctx context.Context, in *OAuthCallbackInput) (*OAuthResult, error) {
	if in.Error != "" {
		return nil, oauthError(OAuthDenied, fmt.Errorf("provider returned %q", in.Error))
	}
	if in.Code == "" {
		return nil, oauthError(OAuthNoCode, nil)
	}
	if in.State == "" || in.ExpectedState == "" ||
		subtle.ConstantTimeCompare([]byte(in.State), []byte(in.ExpectedState)) != 1 {
		return nil, oauthError(OAuthInvalidState, nil)
	}

	profile, err := s.provider.Authenticate(ctx, in.Code)
	if err != nil {
		return nil, oauthError(OAuthCallbackFailed, err)
	}

	user, created, err := s.ensureUser(ctx, profile)
	if err != nil {
		return nil, oauthError(OAuthCallbackFailed, err)
	}

	result, err := s.authService.Issue(user)
	if err != nil {
		return nil, oauthError(OAuthCallbackFailed, err)
	}

	s.logger.Info("social login",
		zap.String("provider", profile.Provider),
		zap.String("user_id", user.ID),
		zap.Bool("created", created),
	)

	return &OAuthResult{
		AuthResult: result,
		Redirect:   utils.SafeRedirectPath(in.Redirect),
		Created:    created,
	}, nil
}

// ensureUser finds the user linked to the provider identity or creates one.
// A returning user only gets the profile image refreshed; the nickname is theirs.
func (s *oauthService) ensureUser(ctx context.Context, profile *domain.SocialProfile) (*domain.User, bool, error) {
	account, err := s.socialRepo.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	switch {
	case err == nil:
		user, err := s.existingUser(ctx, account, profile)
		return user, false, err
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up social account: %w", err)
	}

	user := &domain.User{
		Nickname:     profile.Nickname,
		ProfileImage: profile.ProfileImage,
	}
	if profile.Email != nil {
		email := utils.SanitizeEmail(*profile.Email)
		user.Email = &email
	}

	err = s.userRepo.CreateWithSocialAccount(ctx, user, &domain.SocialAccount{
		Provider:   profile.Provider,
		ProviderID: profile.ProviderID,
	})
	if err == nil {
		return user, true, nil
	}

	// Another callback for the same identity won the insert
	if errors.Is(err, repository.ErrDuplicateSocialAccount) {
		account, lookupErr := s.socialRepo.GetByProvider(ctx, profile.Provider, profile.ProviderID)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("failed to look up social account: %w", lookupErr)
		}
		user, err := s.existingUser(ctx, account, profile)
		return user, false, err
	}

	return nil, false, fmt.Errorf("failed to create social user: %w", err)
}

func (s *oauthService) existingUser(ctx context.Context, account *domain.SocialAccount, profile *domain.SocialProfile) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, account.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get linked user: %w", err)
	}

	if profile.ProfileImage == nil {
		return user, nil
	}
	if user.ProfileImage != nil && *user.ProfileImage == *profile.ProfileImage {
		return user, nil
	}

	if err := s.userRepo.UpdateProfileImage(ctx, user.ID, profile.ProfileImage); err != nil {
		return nil, fmt.Errorf("failed to update profile image: %w", err)
	}
	user.ProfileImage = profile.ProfileImage

	return user, nil
}
