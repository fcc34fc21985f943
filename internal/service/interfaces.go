package service

import (
	"context"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
)

// AuthResult is a signed-in user with a fresh token pair
type AuthResult struct {
	User   *domain.User
	Tokens *domain.TokenPair
}

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error)
	// Refresh rotates both tokens. Concurrent calls with the same token share one result.
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	// CurrentUser re-reads the user named by a valid access token.
	CurrentUser(ctx context.Context, accessToken string) (*domain.User, error)
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
	// Issue signs a token pair for a user that has already been authenticated.
	Issue(user *domain.User) (*AuthResult, error)
}

// OAuthStart is what the browser needs to begin a social login
type OAuthStart struct {
	AuthURL  string
	State    string
	Redirect string
}

// OAuthCallbackInput carries the provider callback and the values saved at start
type OAuthCallbackInput struct {
	Code          string
	State         string
	Error         string
	ExpectedState string
	Redirect      string
}

// OAuthResult is a completed social login
type OAuthResult struct {
	*AuthResult
	Redirect string
	Created  bool
}

// OAuthService defines the authorization-code flow against a social provider
type OAuthService interface {
	Start(ctx context.Context, redirect string) (*OAuthStart, error)
	Callback(ctx context.Context, in *OAuthCallbackInput) (*OAuthResult, error)
}

// ScoreResult is a scored answer sheet with its share of all submissions
type ScoreResult struct {
	mbti.Result
	Percentage float64
}

// StatisticsService records and reports submitted results
type StatisticsService interface {
	Submit(ctx context.Context, req *dto.SubmitResultRequest) (int64, error)
	Statistics(ctx context.Context) (*domain.Statistics, error)
	Score(ctx context.Context, answers []mbti.Answer) (*ScoreResult, error)
}
