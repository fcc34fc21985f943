package repository

import (
	"context"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	// CreateWithCredential stores a user and its password hash in one transaction.
	CreateWithCredential(ctx context.Context, user *domain.User, passwordHash string) error
	// CreateWithSocialAccount stores a user and its provider link in one transaction.
	CreateWithSocialAccount(ctx context.Context, user *domain.User, account *domain.SocialAccount) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfileImage(ctx context.Context, userID string, profileImage *string) error
}

// CredentialRepository defines methods for password credential operations
type CredentialRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Credential, error)
}

// SocialAccountRepository defines methods for social account operations
type SocialAccountRepository interface {
	GetByProvider(ctx context.Context, provider, providerID string) (*domain.SocialAccount, error)
}

// StatisticsRepository counts submitted result types
type StatisticsRepository interface {
	// Increment adds one to the counter of t and returns the new total.
	Increment(ctx context.Context, t mbti.Type) (int64, error)
	Snapshot(ctx context.Context) (*domain.Statistics, error)
}
