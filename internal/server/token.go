package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// TokenResult contains the outcome of a browser authorization flow.
type TokenResult struct {
	UserToken string
	err       error
}

func (t *TokenResult) Error() error {
	return t.err
}

// TokenHandler serves the MusicKit authorization page and captures the
// music user token the page posts back.
// Implements the Handler interface for registration with a Router.
type TokenHandler struct {
	developerToken string
	resultChan     chan TokenResult
	once           sync.Once
	captured       bool
	mu             sync.Mutex
}

// NewTokenHandler creates a handler that authorizes with the given
// developer token.
func NewTokenHandler(developerToken string) *TokenHandler {
	return &TokenHandler{
		developerToken: developerToken,
		resultChan:     make(chan TokenResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *TokenHandler) Routes() []string {
	return []string{"/", "/token"}
}

// ServeHTTP serves the authorization page on GET / and accepts the
// captured token on POST /token.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/token" && r.Method == http.MethodPost:
		h.handleToken(w, r)
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		h.handlePage(w)
	default:
		http.NotFound(w, r)
	}
}

func (h *TokenHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	// Only capture once
	h.mu.Lock()
	if h.captured {
		h.mu.Unlock()
		http.Error(w, "Token already captured", http.StatusBadRequest)
		return
	}
	h.captured = true
	h.mu.Unlock()

	var payload struct {
		UserToken string `json:"user_token"`
		Error     string `json:"error"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.Send(TokenResult{err: fmt.Errorf("invalid token payload: %w", err)})
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if payload.Error != "" {
		h.Send(TokenResult{err: fmt.Errorf("authorization failed: %s", payload.Error)})
		w.WriteHeader(http.StatusOK)
		return
	}

	if payload.UserToken == "" {
		h.Send(TokenResult{err: fmt.Errorf("authorization returned an empty token")})
		http.Error(w, "Empty token", http.StatusBadRequest)
		return
	}

	h.Send(TokenResult{UserToken: payload.UserToken})
	w.WriteHeader(http.StatusOK)
}

func (h *TokenHandler) handlePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorize Apple Music</title>
    <script src="https://js-cdn.music.apple.com/musickit/v3/musickit.js" async></script>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #fa2d48; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0 0 1rem 0; }
        button { background: #fa2d48; color: white; border: none; padding: 0.75rem 1.5rem;
                 border-radius: 6px; font-size: 1rem; cursor: pointer; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authorize Apple Music</h1>
        <p>Sign in to grant library access, then return to the terminal.</p>
        <button id="authorize">Sign In</button>
    </div>
    <script>
        document.addEventListener('musickitloaded', async () => {
            await MusicKit.configure({ developerToken: %q, app: { name: 'amsync', build: '1' } });
        });
        document.getElementById('authorize').addEventListener('click', async () => {
            try {
                const token = await MusicKit.getInstance().authorize();
                await fetch('/token', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ user_token: token }),
                });
                document.querySelector('.container').innerHTML =
                    '<h1>&#10003; Authorized</h1><p>You can close this window and return to the terminal.</p>';
            } catch (err) {
                await fetch('/token', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ error: String(err) }),
                });
            }
        });
    </script>
</body>
</html>
`, h.developerToken)
}

// Send sends the token result through the channel (only once).
func (h *TokenHandler) Send(result TokenResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *TokenHandler) Result() <-chan TokenResult {
	return h.resultChan
}
