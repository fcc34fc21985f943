package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
)

const (
	AccessTokenCookie   = "access_token"
	RefreshTokenCookie  = "refresh_token"
	OAuthStateCookie    = "oauth_state"
	OAuthRedirectCookie = "oauth_redirect"
)

// CookieConfig controls how session cookies are written
type CookieConfig struct {
	Secure      bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	OAuthTTL    time.Duration
	RefreshPath string
}

// CookieManager writes and clears the session and OAuth handshake cookies.
// All of them are HttpOnly and SameSite=Lax. The refresh cookie is only sent
// to the refresh endpoint.
type CookieManager struct {
	cfg CookieConfig
}

// NewCookieManager creates a new cookie manager
func NewCookieManager(cfg CookieConfig) *CookieManager {
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/auth/refresh"
	}
	return &CookieManager{cfg: cfg}
}

// SetAuth stores both tokens
func (m *CookieManager) SetAuth(c *gin.Context, tokens *domain.TokenPair) {
	m.set(c, AccessTokenCookie, tokens.AccessToken, "/", m.cfg.AccessTTL)
	m.set(c, RefreshTokenCookie, tokens.RefreshToken, m.cfg.RefreshPath, m.cfg.RefreshTTL)
}

// ClearAuth expires both token cookies
func (m *CookieManager) ClearAuth(c *gin.Context) {
	m.clear(c, AccessTokenCookie, "/")
	m.clear(c, RefreshTokenCookie, m.cfg.RefreshPath)
}

// SetOAuth stores the handshake state and where to go afterwards
func (m *CookieManager) SetOAuth(c *gin.Context, state, redirect string) {
	m.set(c, OAuthStateCookie, state, "/", m.cfg.OAuthTTL)
	m.set(c, OAuthRedirectCookie, redirect, "/", m.cfg.OAuthTTL)
}

// ClearOAuth expires the handshake cookies
func (m *CookieManager) ClearOAuth(c *gin.Context) {
	m.clear(c, OAuthStateCookie, "/")
	m.clear(c, OAuthRedirectCookie, "/")
}

func (m *CookieManager) set(c *gin.Context, name, value, path string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *CookieManager) clear(c *gin.Context, name, path string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieValue returns the named cookie or "" when it is absent
func cookieValue(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}
