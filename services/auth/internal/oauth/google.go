package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrNotConfigured = errors.New("google sign-in is not configured")

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Profile is the subset of the Google userinfo response the service uses.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

type Google struct {
	cfg *oauth2.Config
	// UserInfoURL is overridden in tests.
	UserInfoURL string
}

func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.ClientID == "" {
		return nil
	}
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		UserInfoURL: userInfoURL,
	}
}

func (g *Google) Enabled() bool { return g != nil && g.cfg != nil }

// AuthURL returns the consent page URL for state.
func (g *Google) AuthURL(state string) (string, error) {
	if !g.Enabled() {
		return "", ErrNotConfigured
	}
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// ProfileFromCode exchanges an authorization code before fetching the
// profile.
func (g *Google) ProfileFromCode(ctx context.Context, code string) (*Profile, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google: exchange code: %w", err)
	}
	return g.fetch(ctx, g.cfg.Client(ctx, tok))
}

// ProfileFromToken uses an access token the client obtained itself.
func (g *Google) ProfileFromToken(ctx context.Context, accessToken string) (*Profile, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return g.fetch(ctx, oauth2.NewClient(ctx, src))
}

func (g *Google) fetch(ctx context.Context, client *http.Client) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google: user info returned %d: %s", resp.StatusCode, body)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("google: decode user info: %w", err)
	}
	if p.ID == "" || p.Email == "" {
		return nil, errors.New("google: user info without id or email")
	}
	return &p, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
