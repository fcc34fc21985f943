package domain

import "time"

// User represents an account. Email is nil for users who only signed in
// through a social provider.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        *string   `json:"email" db:"email"`
	Nickname     string    `json:"nickname" db:"nickname"`
	ProfileImage *string   `json:"profileImage" db:"profile_image"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Credential holds the password hash of a user who registered with email.
type Credential struct {
	UserID       string    `json:"-" db:"user_id"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

// SocialAccount links a user to an identity at an external provider
type SocialAccount struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	Provider   string    `json:"provider" db:"provider"` // kakao
	ProviderID string    `json:"providerId" db:"provider_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// SocialProfile is the subset of a provider profile the service stores.
type SocialProfile struct {
	Provider     string
	ProviderID   string
	Email        *string
	Nickname     string
	ProfileImage *string
}
