package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
)

// socialAccountRepository implements SocialAccountRepository interface
type socialAccountRepository struct {
	db *database.Postgres
}

// NewSocialAccountRepository creates a new social account repository
func NewSocialAccountRepository(db *database.Postgres) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// GetByProvider retrieves a social account by provider and provider user ID
func (r *socialAccountRepository) GetByProvider(ctx context.Context, provider, providerID string) (*domain.SocialAccount, error) {
	query := `
		SELECT id, user_id, provider, provider_id, created_at
		FROM social_accounts
		WHERE provider = $1 AND provider_id = $2
	`

	account := &domain.SocialAccount{}
	err := r.db.DB.QueryRowContext(ctx, query, provider, providerID).Scan(
		&account.ID,
		&account.UserID,
		&account.Provider,
		&account.ProviderID,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("social account %s/%s not found: %w", provider, providerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get social account: %w", err)
	}

	return account, nil
}

func insertSocialAccount(ctx context.Context, db execer, account *domain.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (id, user_id, provider, provider_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, query,
		account.ID,
		account.UserID,
		account.Provider,
		account.ProviderID,
		account.CreatedAt,
	)

	if err != nil {
		// Unique (provider, provider_id)
		if isUniqueViolation(err) {
			return fmt.Errorf("social account %s/%s already exists: %w", account.Provider, account.ProviderID, ErrDuplicateSocialAccount)
		}
		return fmt.Errorf("failed to create social account: %w", err)
	}

	return nil
}
