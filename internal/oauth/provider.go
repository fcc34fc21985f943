// Package oauth talks to external identity providers using the
// authorization-code grant.
package oauth

import (
	"context"
	"errors"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
)

// ErrProvider wraps every failure reported by or while talking to a provider.
var ErrProvider = errors.New("oauth provider error")

// Provider is an identity provider that supports the authorization-code grant
type Provider interface {
	Name() string
	// AuthCodeURL returns the provider URL the browser is sent to.
	AuthCodeURL(state string) string
	// Authenticate exchanges the code and fetches the user's profile.
	Authenticate(ctx context.Context, code string) (*domain.SocialProfile, error)
}
