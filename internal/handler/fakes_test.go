package handler

import (
	"context"
	"time"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/service"
)

// fakeAuthService knows one user. Tokens are plain strings.
type fakeAuthService struct {
	user     *domain.User
	password string
	access   string
	refresh  string
	rotated  *domain.TokenPair

	registerErr    error
	currentUserErr error
}

func newFakeAuthService() *fakeAuthService {
	email := "tester@example.com"
	return &fakeAuthService{
		user:     &domain.User{ID: "user-1", Email: &email, Nickname: "tester"},
		password: "password123",
		access:   "access-1",
		refresh:  "refresh-1",
		rotated:  &domain.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"},
	}
}

func (f *fakeAuthService) result(tokens *domain.TokenPair) *service.AuthResult {
	return &service.AuthResult{User: f.user, Tokens: tokens}
}

func (f *fakeAuthService) Register(_ context.Context, req *dto.RegisterRequest) (*service.AuthResult, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.result(&domain.TokenPair{AccessToken: f.access, RefreshToken: f.refresh}), nil
}

func (f *fakeAuthService) Login(_ context.Context, req *dto.LoginRequest) (*service.AuthResult, error) {
	if f.user.Email == nil || req.Email != *f.user.Email || req.Password != f.password {
		return nil, service.ErrInvalidCredentials
	}
	return f.result(&domain.TokenPair{AccessToken: f.access, RefreshToken: f.refresh}), nil
}

func (f *fakeAuthService) Refresh(_ context.Context, refreshToken string) (*service.AuthResult, error) {
	if refreshToken != f.refresh {
		return nil, service.ErrUnauthorized
	}
	return f.result(f.rotated), nil
}

func (f *fakeAuthService) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if _, err := f.ValidateToken(ctx, accessToken); err != nil {
		return nil, err
	}
	if f.currentUserErr != nil {
		return nil, f.currentUserErr
	}
	return f.user, nil
}

func (f *fakeAuthService) ValidateToken(_ context.Context, token string) (*domain.TokenClaims, error) {
	if token != f.access && token != f.rotated.AccessToken {
		return nil, service.ErrUnauthorized
	}
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    f.user.ID,
		Email:     f.user.Email,
		Nickname:  f.user.Nickname,
		IssuedAt:  now,
		ExpiresAt: now.Add(15 * time.Minute),
	}, nil
}

func (f *fakeAuthService) Issue(user *domain.User) (*service.AuthResult, error) {
	return &service.AuthResult{User: user, Tokens: &domain.TokenPair{AccessToken: f.access, RefreshToken: f.refresh}}, nil
}

// fakeOAuthService records the callback input and returns a canned outcome.
type fakeOAuthService struct {
	start    *service.OAuthStart
	result   *service.OAuthResult
	err      error
	received *service.OAuthCallbackInput
}

func (f *fakeOAuthService) Start(_ context.Context, redirect string) (*service.OAuthStart, error) {
	s := *f.start
	s.Redirect = redirect
	return &s, nil
}

func (f *fakeOAuthService) Callback(_ context.Context, in *service.OAuthCallbackInput) (*service.OAuthResult, error) {
	f.received = in
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
