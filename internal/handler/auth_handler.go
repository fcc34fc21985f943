package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	cookies     *CookieManager
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, cookies *CookieManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an email account and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.SetAuth(c, result.Tokens)
	c.JSON(http.StatusCreated, dto.AuthResponse{
		User:    dto.NewUserInfo(result.User),
		Message: "registered",
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.SetAuth(c, result.Tokens)
	c.JSON(http.StatusOK, dto.AuthResponse{
		User:    dto.NewUserInfo(result.User),
		Message: "logged in",
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Clear the session cookies. Always succeeds.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.ClearAuth(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "logged out"})
}

// Refresh handles token refresh
// @Summary Refresh session
// @Description Rotate both tokens using the refresh cookie
// @Tags auth
// @Produce json
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := cookieValue(c, RefreshTokenCookie)
	if refreshToken == "" {
		h.cookies.ClearAuth(c)
		respondError(c, h.logger, service.ErrUnauthorized)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.cookies.ClearAuth(c)
		respondError(c, h.logger, err)
		return
	}

	h.cookies.SetAuth(c, result.Tokens)
	c.JSON(http.StatusOK, dto.AuthResponse{
		User:    dto.NewUserInfo(result.User),
		Message: "refreshed",
	})
}

// Me returns the signed-in user
// @Summary Current user
// @Description Returns the user for the access cookie, or null
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MeResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	token := accessToken(c)
	if token == "" {
		c.JSON(http.StatusOK, dto.MeResponse{})
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), token)
	switch {
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrUserNotFound):
		h.logger.Debug("no current user", zap.Error(err))
		c.JSON(http.StatusOK, dto.MeResponse{})
		return
	case err != nil:
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{User: dto.NewUserInfo(user)})
}

// Profile returns the signed-in user on a route the guard protects
// @Summary Protected profile
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MeResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/protected/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	if _, ok := claimsFromContext(c); !ok {
		respondError(c, h.logger, service.ErrUnauthorized)
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), accessToken(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{User: dto.NewUserInfo(user)})
}
