package domain

import "time"

// TokenClaims represents the verified contents of an access token
type TokenClaims struct {
	UserID    string
	Email     *string
	Nickname  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair represents a freshly issued access and refresh token
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
