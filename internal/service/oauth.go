package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/templui/ecoscan/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

var (
	ErrUnknownProvider = errors.New("unknown sign-in provider")
	ErrNoProviderEmail = errors.New("could not retrieve an email address from the provider")
)

// OAuthProvider is one external sign-in option.
type OAuthProvider struct {
	Name   string
	Label  string
	Config *oauth2.Config

	fetchEmail func(ctx context.Context, client *http.Client) (string, error)
}

// Email exchanges the callback code and returns the account's email.
func (p *OAuthProvider) Email(ctx context.Context, code string) (string, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	email, err := p.fetchEmail(ctx, p.Config.Client(ctx, token))
	if err != nil {
		return "", err
	}
	if email == "" {
		return "", ErrNoProviderEmail
	}
	return email, nil
}

// OAuthProviders holds the providers with configured credentials.
type OAuthProviders map[string]*OAuthProvider

func (p OAuthProviders) Get(name string) (*OAuthProvider, error) {
	provider, ok := p[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return provider, nil
}

// NewOAuthProviders builds Google and GitHub sign-in when their client IDs are set.
func NewOAuthProviders(cfg *config.Config) OAuthProviders {
	providers := OAuthProviders{}

	if cfg.GoogleClientID != "" {
		providers["google"] = &OAuthProvider{
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.AppURL + "/auth/google/callback",
				Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
				Endpoint:     google.Endpoint,
			},
			fetchEmail: googleEmail,
		}
	}

	if cfg.GitHubClientID != "" {
		providers["github"] = &OAuthProvider{
			Name:  "github",
			Label: "GitHub",
			Config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  cfg.AppURL + "/auth/github/callback",
				Scopes:       []string{"user:email"},
				Endpoint:     github.Endpoint,
			},
			fetchEmail: githubEmail,
		}
	}

	return providers
}

func googleEmail(ctx context.Context, client *http.Client) (string, error) {
	var userInfo struct {
		Email string `json:"email"`
	}
	err := getJSON(ctx, client, "https://www.googleapis.com/oauth2/v2/userinfo", &userInfo)
	if err != nil {
		return "", fmt.Errorf("failed to get google user info: %w", err)
	}
	return userInfo.Email, nil
}

// githubEmail falls back to /user/emails when the profile email is private.
func githubEmail(ctx context.Context, client *http.Client) (string, error) {
	var userInfo struct {
		Email string `json:"email"`
	}
	err := getJSON(ctx, client, "https://api.github.com/user", &userInfo)
	if err != nil {
		return "", fmt.Errorf("failed to get github user info: %w", err)
	}
	if userInfo.Email != "" {
		return userInfo.Email, nil
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	err = getJSON(ctx, client, "https://api.github.com/user/emails", &emails)
	if err != nil {
		return "", fmt.Errorf("failed to get github user emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
