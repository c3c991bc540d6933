package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// OAuthResult carries the token or the error from one authorization attempt.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the catalog's authorization code redirect for a single
// PKCE login. It implements [Handler] so it can be mounted on a [BasicRouter].
type OAuthHandler struct {
	config   *oauth2.Config
	state    string
	verifier string

	hit     atomic.Bool
	once    sync.Once
	results chan OAuthResult
}

// NewOAuthHandler creates a handler for one login attempt.
//
// state must be random; verifier is the PKCE code verifier from [oauth2.GenerateVerifier].
func NewOAuthHandler(config *oauth2.Config, state, verifier string) *OAuthHandler {
	return &OAuthHandler{
		config:   config,
		state:    state,
		verifier: verifier,
		results:  make(chan OAuthResult, 1),
	}
}

// AuthCodeURL returns the URL the user opens to grant access.
func (h *OAuthHandler) AuthCodeURL() string {
	return h.config.AuthCodeURL(h.state, oauth2.S256ChallengeOption(h.verifier))
}

// Routes returns the path of the configured redirect URL, "/callback" by default.
func (h *OAuthHandler) Routes() []string {
	if u, err := url.Parse(h.config.RedirectURL); err == nil && u.Path != "" && u.Path != "/" {
		return []string{u.Path}
	}
	return []string{"/callback"}
}

// ServeHTTP checks state, exchanges the code with the verifier and publishes
// the outcome. Callbacks after the first are rejected.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.hit.Swap(true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, "Invalid state parameter", fmt.Errorf("invalid state parameter"))
		return
	}

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))
		h.fail(w, http.StatusBadRequest, "Authorization failed", err)
		return
	}

	token, err := h.config.Exchange(r.Context(), code, oauth2.VerifierOption(h.verifier))
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Token exchange failed", fmt.Errorf("token exchange failed: %w", err))
		return
	}

	h.Send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, loginDonePage)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, msg string, err error) {
	h.Send(OAuthResult{err: err})
	http.Error(w, msg, status)
}

// Send publishes result once; later calls are ignored.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one [OAuthResult] and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const loginDonePage = `<!DOCTYPE html>
<html>
<head><title>listx</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">
    <h1>Catalog login complete</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`
