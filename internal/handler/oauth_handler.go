package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/service"
)

// OAuthHandler drives the browser side of social login
type OAuthHandler struct {
	oauthService service.OAuthService
	cookies      *CookieManager
	baseURL      string
	logger       *zap.Logger
}

// NewOAuthHandler creates a new OAuth handler. baseURL is the public origin
// the browser is sent back to once the flow ends.
func NewOAuthHandler(oauthService service.OAuthService, cookies *CookieManager, baseURL string, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
		cookies:      cookies,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		logger:       logger,
	}
}

// Start begins social login
// @Summary Start social login
// @Tags oauth
// @Param redirect query string false "Path to return to after login"
// @Success 302
// @Router /auth/oauth/start [get]
func (h *OAuthHandler) Start(c *gin.Context) {
	start, err := h.oauthService.Start(c.Request.Context(), c.Query("redirect"))
	if err != nil {
		h.logger.Error("failed to start oauth", zap.Error(err))
		h.fail(c, service.OAuthCallbackFailed)
		return
	}

	h.cookies.SetOAuth(c, start.State, start.Redirect)
	c.Redirect(http.StatusFound, start.AuthURL)
}

// Callback completes social login
// @Summary Social login callback
// @Tags oauth
// @Param code query string false "Authorization code"
// @Param state query string false "State issued at start"
// @Param error query string false "Provider error"
// @Success 302
// @Router /auth/oauth/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	in := &service.OAuthCallbackInput{
		Code:          c.Query("code"),
		State:         c.Query("state"),
		Error:         c.Query("error"),
		ExpectedState: cookieValue(c, OAuthStateCookie),
		Redirect:      cookieValue(c, OAuthRedirectCookie),
	}
	// The handshake cookies are single use whatever the outcome
	h.cookies.ClearOAuth(c)

	result, err := h.oauthService.Callback(c.Request.Context(), in)
	if err != nil {
		code := service.OAuthCallbackFailed
		var flowErr *service.OAuthFlowError
		if errors.As(err, &flowErr) {
			code = flowErr.Code
		}
		h.logger.Warn("oauth callback failed", zap.String("code", string(code)), zap.Error(err))
		h.fail(c, code)
		return
	}

	h.cookies.SetAuth(c, result.Tokens)
	c.Redirect(http.StatusFound, h.baseURL+result.Redirect)
}

func (h *OAuthHandler) fail(c *gin.Context, code service.OAuthErrorCode) {
	c.Redirect(http.StatusFound, h.baseURL+"/login?error="+url.QueryEscape(string(code)))
}
