package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/desertthunder/listx/internal/server"
	"github.com/desertthunder/listx/internal/services"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const loginTimeout = 2 * time.Minute

// CatalogLogin runs the authorization code flow and stores the token in the session file.
func (r *Runner) CatalogLogin(ctx context.Context, cmd *cli.Command) error {
	config := r.cfg()
	if config.Catalog.ClientID == "" {
		return fmt.Errorf("%w: catalog.client_id is not set", shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth(ctx, config, !cmd.Bool("no-browser"), loginTimeout)
	if err != nil {
		return err
	}

	if err := services.SaveSession(config.Catalog.SessionFile, token); err != nil {
		return err
	}
	r.logger.Info("catalog session saved", "path", config.Catalog.SessionFile)
	return r.writePlain("✓ Logged in, session saved to %s\n", config.Catalog.SessionFile)
}

// callbackAddr returns the listen address for the redirect URL, falling back to the server address.
func callbackAddr(redirect string, fallback string) (string, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return "", fmt.Errorf("%w: redirect_url: %v", shared.ErrInvalidConfig, err)
	}
	if u.Host == "" {
		return fallback, nil
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "80"), nil
	}
	return u.Host, nil
}

// doOAuth serves the redirect callback locally until a token arrives, the timeout fires or ctx ends.
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, openBrowser bool, timeout time.Duration) (*oauth2.Token, error) {
	oauthCfg := services.OAuthConfig(config.Catalog)
	if oauthCfg.RedirectURL == "" {
		oauthCfg.RedirectURL = "http://" + config.Server.Addr() + "/callback"
	}

	addr, err := callbackAddr(oauthCfg.RedirectURL, config.Server.Addr())
	if err != nil {
		return nil, err
	}

	handler := server.NewOAuthHandler(oauthCfg, oauth2.GenerateVerifier(), oauth2.GenerateVerifier())
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the callback on %s: %w", addr, err)
	}

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.New(addr, router, r.logger).Serve(serveCtx, ln)
	}()

	authURL := handler.AuthCodeURL()
	if openBrowser {
		r.writePlain("→ Opening browser for catalog login...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = errors.New("callback server stopped")
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrNotAuthenticated)
	}
	return result.Token, nil
}

// CatalogStatus reports the stored session and whether the catalog proxy is reachable.
func (r *Runner) CatalogStatus(ctx context.Context, cmd *cli.Command) error {
	config := r.cfg()

	token, err := services.LoadSession(config.Catalog.SessionFile)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		r.writePlain("Session: ✗ not logged in\n")
	case err != nil:
		r.writePlain("Session: ✗ %v\n", err)
	case token.Valid() && token.Expiry.IsZero():
		r.writePlain("Session: ✓ valid\n")
	case token.Valid():
		r.writePlain("Session: ✓ valid until %s\n", token.Expiry.Format(time.RFC3339))
	default:
		r.writePlain("Session: ⚠ expired, refreshed on next request\n")
	}

	if r.api == nil {
		return fmt.Errorf("%w: proxy client not initialized", shared.ErrServiceUnavailable)
	}

	resp, err := r.api.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	status := "ok"
	if data, ok := resp.JSONData.(map[string]any); ok {
		if s, ok := data["status"].(string); ok {
			status = s
		}
	}
	return r.writePlain("Proxy: ✓ %s (%s)\n", config.Catalog.BaseURL, status)
}
