package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/repository"
	"github.com/prperemyshlev/mbti-quiz/internal/service"
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
)

const testBaseURL = "https://quiz.example.com"

type testEnv struct {
	router *gin.Engine
	auth   *fakeAuthService
	oauth  *fakeOAuthService
	stats  repository.StatisticsRepository
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	env := &testEnv{
		auth: newFakeAuthService(),
		oauth: &fakeOAuthService{
			start: &service.OAuthStart{AuthURL: "https://kauth.example.com/authorize?state=s1", State: "s1"},
		},
		stats: repository.NewMemoryStatisticsRepository(),
	}

	cookies := NewCookieManager(CookieConfig{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		OAuthTTL:   10 * time.Minute,
	})
	authHandler := NewAuthHandler(env.auth, cookies, logger)
	oauthHandler := NewOAuthHandler(env.oauth, cookies, testBaseURL+"/", logger)
	resultHandler := NewResultHandler(service.NewStatisticsService(env.stats, logger), logger)

	r := gin.New()
	r.Use(RecoveryMiddleware(logger))
	r.Use(RouteGuard(RouteGuardConfig{
		ProtectedPages: []string{"/profile", "/mypage"},
		AuthPages:      []string{"/login", "/register"},
		ProtectedAPIs:  []string{"/api/protected"},
	}, env.auth))

	auth := r.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", authHandler.Me)
	auth.GET("/oauth/start", oauthHandler.Start)
	auth.GET("/oauth/callback", oauthHandler.Callback)

	r.GET("/questions", resultHandler.Questions)
	r.POST("/results/submit", resultHandler.Submit)
	r.GET("/results/statistics", resultHandler.Statistics)
	r.POST("/results/score", resultHandler.Score)
	r.GET("/api/protected/profile", authHandler.Profile)

	page := func(c *gin.Context) { c.String(http.StatusOK, "page") }
	r.GET("/profile", page)
	r.GET("/profilex", page)
	r.GET("/login", page)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	env.router = r
	return env
}

func (e *testEnv) do(method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func responseCookies(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLoginSetsCookies(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/auth/login", gin.H{"email": "tester@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := responseCookies(w)
	access := cookies[AccessTokenCookie]
	require.NotNil(t, access)
	assert.Equal(t, "access-1", access.Value)
	assert.Equal(t, "/", access.Path)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, 900, access.MaxAge)

	refresh := cookies[RefreshTokenCookie]
	require.NotNil(t, refresh)
	assert.Equal(t, "/auth/refresh", refresh.Path)
	assert.Equal(t, 7*24*3600, refresh.MaxAge)

	body := decode(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, "tester", user["nickname"])
	assert.NotContains(t, w.Body.String(), "access-1")
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/auth/login", gin.H{"email": "tester@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	w = env.do(http.MethodPost, "/auth/login", gin.H{"email": "tester@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "created", want: http.StatusCreated},
		{name: "validation", err: &service.ValidationError{Field: "password", Message: "too short"}, want: http.StatusBadRequest},
		{name: "conflict", err: service.ErrConflict, want: http.StatusConflict},
		{name: "unexpected", err: assert.AnError, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.auth.registerErr = tt.err

			w := env.do(http.MethodPost, "/auth/register", gin.H{"email": "a@b.co", "password": "password123", "nickname": "ab"})
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), assert.AnError.Error())
			}
		})
	}
}

func TestLogoutThenMeReturnsNull(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/auth/me", nil, &http.Cookie{Name: AccessTokenCookie, Value: "access-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode(t, w)["user"])

	w = env.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := responseCookies(w)
	require.Contains(t, cookies, AccessTokenCookie)
	require.Contains(t, cookies, RefreshTokenCookie)
	assert.Negative(t, cookies[AccessTokenCookie].MaxAge)
	assert.Negative(t, cookies[RefreshTokenCookie].MaxAge)
	assert.Equal(t, "/auth/refresh", cookies[RefreshTokenCookie].Path)

	// The browser has dropped the cookies
	w = env.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":null}`, w.Body.String())

	w = env.do(http.MethodGet, "/auth/me", nil, &http.Cookie{Name: AccessTokenCookie, Value: "stale"})
	assert.JSONEq(t, `{"user":null}`, w.Body.String())
}

func TestMe(t *testing.T) {
	access := &http.Cookie{Name: AccessTokenCookie, Value: "access-1"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "user deleted",
			err:        service.ErrUserNotFound,
			wantStatus: http.StatusOK,
			wantBody:   `{"user":null}`,
		},
		{
			name:       "token rejected",
			err:        fmt.Errorf("%w: expired", service.ErrUnauthorized),
			wantStatus: http.StatusOK,
			wantBody:   `{"user":null}`,
		},
		{
			name:       "database down",
			err:        errors.New("failed to get user: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error","message":"something went wrong"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.auth.currentUserErr = tt.err

			w := env.do(http.MethodGet, "/auth/me", nil, access)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/auth/refresh", nil, &http.Cookie{Name: RefreshTokenCookie, Value: "refresh-1"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := responseCookies(w)
	assert.Equal(t, "access-2", cookies[AccessTokenCookie].Value)
	assert.Equal(t, "refresh-2", cookies[RefreshTokenCookie].Value)

	for name, c := range map[string]*http.Cookie{
		"missing": nil,
		"invalid": {Name: RefreshTokenCookie, Value: "nope"},
	} {
		t.Run(name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if c == nil {
				w = env.do(http.MethodPost, "/auth/refresh", nil)
			} else {
				w = env.do(http.MethodPost, "/auth/refresh", nil, c)
			}
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
			cleared := responseCookies(w)
			require.Contains(t, cleared, AccessTokenCookie)
			assert.Negative(t, cleared[AccessTokenCookie].MaxAge)
		})
	}
}

func TestRouteGuard(t *testing.T) {
	signedIn := &http.Cookie{Name: AccessTokenCookie, Value: "access-1"}
	expired := &http.Cookie{Name: AccessTokenCookie, Value: "expired"}

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		bearer   string
		status   int
		location string
	}{
		{name: "anonymous page", path: "/profile", status: http.StatusFound, location: "/login?redirect=%2Fprofile"},
		{name: "invalid token page", path: "/profile", cookie: expired, status: http.StatusFound, location: "/login?redirect=%2Fprofile"},
		{name: "signed in page", path: "/profile", cookie: signedIn, status: http.StatusOK},
		{name: "prefix is segment aware", path: "/profilex", status: http.StatusOK},
		{name: "anonymous api", path: "/api/protected/profile", status: http.StatusUnauthorized},
		{name: "signed in api", path: "/api/protected/profile", cookie: signedIn, status: http.StatusOK},
		{name: "bearer api", path: "/api/protected/profile", bearer: "access-1", status: http.StatusOK},
		{name: "signed in login", path: "/login", cookie: signedIn, status: http.StatusFound, location: "/"},
		{name: "anonymous login", path: "/login", status: http.StatusOK},
		{name: "public", path: "/questions", status: http.StatusOK},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
			}
		})
	}
}

func TestOAuthStart(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/auth/oauth/start?redirect=%2Fmypage", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://kauth.example.com/authorize?state=s1", w.Header().Get("Location"))

	cookies := responseCookies(w)
	assert.Equal(t, "s1", cookies[OAuthStateCookie].Value)
	assert.Equal(t, "/mypage", cookies[OAuthRedirectCookie].Value)
	assert.Equal(t, 600, cookies[OAuthStateCookie].MaxAge)
	assert.True(t, cookies[OAuthStateCookie].HttpOnly)
}

func TestOAuthCallbackSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.oauth.result = &service.OAuthResult{
		AuthResult: &service.AuthResult{
			User:   env.auth.user,
			Tokens: &domain.TokenPair{AccessToken: "social-access", RefreshToken: "social-refresh"},
		},
		Redirect: "/mypage",
	}

	w := env.do(http.MethodGet, "/auth/oauth/callback?code=c1&state=s1", nil,
		&http.Cookie{Name: OAuthStateCookie, Value: "s1"},
		&http.Cookie{Name: OAuthRedirectCookie, Value: "/mypage"},
	)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testBaseURL+"/mypage", w.Header().Get("Location"))

	require.NotNil(t, env.oauth.received)
	assert.Equal(t, "c1", env.oauth.received.Code)
	assert.Equal(t, "s1", env.oauth.received.ExpectedState)
	assert.Equal(t, "/mypage", env.oauth.received.Redirect)

	cookies := responseCookies(w)
	assert.Equal(t, "social-access", cookies[AccessTokenCookie].Value)
	assert.Negative(t, cookies[OAuthStateCookie].MaxAge)
	assert.Negative(t, cookies[OAuthRedirectCookie].MaxAge)
}

func TestOAuthCallbackFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "denied", err: &service.OAuthFlowError{Code: service.OAuthDenied}, want: "denied"},
		{name: "state", err: &service.OAuthFlowError{Code: service.OAuthInvalidState}, want: "invalid_state"},
		{name: "untyped", err: assert.AnError, want: "callback_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.oauth.err = tt.err

			w := env.do(http.MethodGet, "/auth/oauth/callback?state=x", nil, &http.Cookie{Name: OAuthStateCookie, Value: "s1"})
			require.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, testBaseURL+"/login?error="+tt.want, w.Header().Get("Location"))

			cookies := responseCookies(w)
			assert.Negative(t, cookies[OAuthStateCookie].MaxAge)
			assert.NotContains(t, cookies, AccessTokenCookie)
		})
	}
}

func TestSubmitAndStatistics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/results/submit", gin.H{"mbtiType": "INFP"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"totalTests":1}`, w.Body.String())

	for _, body := range []gin.H{{"mbtiType": "XXXX"}, {"mbtiType": "infp"}, {"mbtiType": " INFP "}, {}} {
		w = env.do(http.MethodPost, "/results/submit", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w = env.do(http.MethodGet, "/results/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])
	stats := body["stats"].(map[string]any)
	assert.Len(t, stats, 16)
	assert.EqualValues(t, 1, stats["INFP"])
	assert.NotNil(t, body["lastUpdated"])
}

func TestScore(t *testing.T) {
	env := newTestEnv(t)

	answers := make([]gin.H, 0, 20)
	for id := 1; id <= 20; id++ {
		answers = append(answers, gin.H{"questionId": id, "score": 2})
	}

	w := env.do(http.MethodPost, "/results/score", gin.H{"answers": answers})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ESTJ", decode(t, w)["mbtiType"])

	w = env.do(http.MethodPost, "/results/score", gin.H{"answers": answers[:19]})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Scoring never records a result
	snapshot, err := env.stats.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Zero(t, snapshot.Total)
}

func TestQuestions(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["questions"], 20)
}

func TestRecovery(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error","message":"something went wrong"}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb, err := database.NewRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.POST("/auth/login", RateLimitMiddleware(service.NewRateLimiter(rdb), 2, time.Minute, RouteIPKey, zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://quiz.example.com"}, []string{"GET", "POST"}, []string{"Content-Type"}))
	r.GET("/questions", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/questions", nil)
	req.Header.Set("Origin", "https://quiz.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://quiz.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/questions", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/questions", nil)
	req.Header.Set("Origin", "https://quiz.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
