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

const userColumns = `id, email, nickname, profile_image, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// CreateWithCredential creates a new user together with its password credential
func (r *userRepository) CreateWithCredential(ctx context.Context, user *domain.User, passwordHash string) error {
	prepareUser(user)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		query := `
			INSERT INTO credentials (user_id, password_hash, created_at)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, user.ID, passwordHash, user.CreatedAt); err != nil {
			return fmt.Errorf("failed to create credential: %w", err)
		}

		return nil
	})
}

// CreateWithSocialAccount creates a new user linked to a provider identity
func (r *userRepository) CreateWithSocialAccount(ctx context.Context, user *domain.User, account *domain.SocialAccount) error {
	prepareUser(user)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		account.UserID = user.ID
		return insertSocialAccount(ctx, tx, account)
	})
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// UpdateProfileImage replaces the stored profile image of a user
func (r *userRepository) UpdateProfileImage(ctx context.Context, userID string, profileImage *string) error {
	query := `
		UPDATE users
		SET profile_image = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, profileImage, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update profile image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
	}

	return nil
}

func prepareUser(user *domain.User) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
}

func insertUser(ctx context.Context, db execer, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, nickname, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Nickname,
		user.ProfileImage,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var email, profileImage sql.NullString

	err := row.Scan(
		&user.ID,
		&email,
		&user.Nickname,
		&profileImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		user.Email = &email.String
	}
	if profileImage.Valid {
		user.ProfileImage = &profileImage.String
	}

	return user, nil
}
