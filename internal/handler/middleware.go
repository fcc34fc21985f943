package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/service"
)

const claimsKey = "claims"

// RouteGuardConfig lists the path prefixes the guard acts on
type RouteGuardConfig struct {
	// ProtectedPages redirect anonymous visitors to the login page.
	ProtectedPages []string
	// AuthPages redirect signed-in visitors to the home page.
	AuthPages []string
	// ProtectedAPIs answer 401 to anonymous callers.
	ProtectedAPIs []string
	LoginPath     string
}

// RouteGuard checks the access token on every request. A valid token puts
// its claims on the context; an invalid one is treated as anonymous.
func RouteGuard(cfg RouteGuardConfig, authService service.AuthService) gin.HandlerFunc {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		authenticated := false
		if token := accessToken(c); token != "" {
			if claims, err := authService.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set(claimsKey, claims)
				authenticated = true
			}
		}

		switch {
		case !authenticated && matchesAny(path, cfg.ProtectedPages):
			c.Redirect(http.StatusFound, loginPath+"?redirect="+url.QueryEscape(path))
			c.Abort()
			return
		case !authenticated && matchesAny(path, cfg.ProtectedAPIs):
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Authentication required",
				Code:  "UNAUTHORIZED",
			})
			return
		case authenticated && matchesAny(path, cfg.AuthPages):
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.Next()
	}
}

// accessToken reads the access cookie, falling back to a Bearer header for
// non-browser clients.
func accessToken(c *gin.Context) string {
	if token := cookieValue(c, AccessTokenCookie); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}

	return ""
}

// claimsFromContext returns the claims set by RouteGuard
func claimsFromContext(c *gin.Context) (*domain.TokenClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.TokenClaims)
	return claims, ok
}

// matchesAny reports whether path equals a prefix or lies below it
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
