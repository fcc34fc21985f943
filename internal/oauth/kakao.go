package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
)

const ProviderKakao = "kakao"

const (
	DefaultKakaoAuthURL    = "https://kauth.kakao.com/oauth/authorize"
	DefaultKakaoTokenURL   = "https://kauth.kakao.com/oauth/token"
	DefaultKakaoProfileURL = "https://kapi.kakao.com/v2/user/me"

	defaultHTTPTimeout = 10 * time.Second
)

// KakaoConfig configures the Kakao provider
type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	HTTPClient   *http.Client
}

// Kakao implements Provider for Kakao Login
type Kakao struct {
	oauth      *oauth2.Config
	profileURL string
	httpClient *http.Client
}

// NewKakao creates a Kakao provider. Empty endpoints fall back to the public Kakao URLs.
func NewKakao(cfg KakaoConfig) *Kakao {
	authURL := valueOr(cfg.AuthURL, DefaultKakaoAuthURL)
	tokenURL := valueOr(cfg.TokenURL, DefaultKakaoTokenURL)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Kakao{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
				// Kakao expects client credentials in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		profileURL: valueOr(cfg.ProfileURL, DefaultKakaoProfileURL),
		httpClient: httpClient,
	}
}

func (k *Kakao) Name() string {
	return ProviderKakao
}

func (k *Kakao) AuthCodeURL(state string) string {
	return k.oauth.AuthCodeURL(state)
}

func (k *Kakao) Authenticate(ctx context.Context, code string) (*domain.SocialProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, k.httpClient)

	token, err := k.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: kakao token exchange: %w", ErrProvider, err)
	}

	return k.fetchProfile(ctx, token)
}

type kakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount *struct {
		Email   string `json:"email"`
		Profile *struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (k *Kakao) fetchProfile(ctx context.Context, token *oauth2.Token) (*domain.SocialProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build profile request: %w", ErrProvider, err)
	}
	token.SetAuthHeader(req)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: kakao profile request: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: kakao profile status %d: %s", ErrProvider, resp.StatusCode, body)
	}

	var user kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decode kakao profile: %w", ErrProvider, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: kakao profile without id", ErrProvider)
	}

	return user.toProfile(), nil
}

func (u kakaoUser) toProfile() *domain.SocialProfile {
	id := strconv.FormatInt(u.ID, 10)
	profile := &domain.SocialProfile{
		Provider:   ProviderKakao,
		ProviderID: id,
		Nickname:   "KakaoUser" + id,
	}

	if u.KakaoAccount == nil {
		return profile
	}
	if u.KakaoAccount.Email != "" {
		email := u.KakaoAccount.Email
		profile.Email = &email
	}
	if p := u.KakaoAccount.Profile; p != nil {
		if p.Nickname != "" {
			profile.Nickname = p.Nickname
		}
		if p.ProfileImageURL != "" {
			image := p.ProfileImageURL
			profile.ProfileImage = &image
		}
	}

	return profile
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
