package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/listx/internal/shared"
	"golang.org/x/oauth2"
)

// LoadSession reads a stored [oauth2.Token] from path.
//
// A missing file returns [shared.ErrNotAuthenticated].
func LoadSession(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, shared.ErrNotAuthenticated
	} else if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &token, nil
}

// SaveSession writes token to path with owner-only permissions.
func SaveSession(path string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", shared.ErrInvalidInput)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// OAuthConfig builds the authorization code flow configuration for the catalog.
func OAuthConfig(cfg shared.CatalogConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}
}

// persistingSource saves refreshed tokens back to the session file.
type persistingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	path string
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := SaveSession(p.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// Authenticate attaches the stored session to every request.
//
// The session file comes from cfg, falling back to the one the service was built
// with. Without a session the service stays unauthenticated and the proxy manages the login.
func (t *TidalService) Authenticate(ctx context.Context, cfg shared.CatalogConfig) error {
	path := cfg.SessionFile
	if path == "" {
		path = t.sessionFile
	}
	if path == "" {
		return fmt.Errorf("%w: no session file configured", shared.ErrMissingConfig)
	}

	token, err := LoadSession(path)
	if err != nil {
		return err
	}

	oauthCfg := OAuthConfig(cfg)

	base := &http.Client{Timeout: t.timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	src := &persistingSource{
		src:  oauthCfg.TokenSource(ctx, token),
		path: path,
		last: token.AccessToken,
	}
	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src))
	client.Timeout = t.timeout
	t.httpClient = client

	t.logger.Debug("loaded catalog session", "file", path, "expires", token.Expiry)
	return nil
}

// Login exchanges a fresh access/refresh token pair for a stored session.
func (t *TidalService) Login(ctx context.Context, cfg shared.CatalogConfig, accessToken, refreshToken string) error {
	if accessToken == "" && refreshToken == "" {
		return shared.ErrMissingCredentials
	}
	path := cfg.SessionFile
	if path == "" {
		path = t.sessionFile
	}
	if path == "" {
		return fmt.Errorf("%w: no session file configured", shared.ErrMissingConfig)
	}

	if err := SaveSession(path, &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "Bearer"}); err != nil {
		return err
	}
	return t.Authenticate(ctx, cfg)
}
