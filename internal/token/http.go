package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// expiryLeeway is subtracted from the token expiry so a token about to die
// mid-push already counts as invalid.
const expiryLeeway = 30 * time.Second

// SecretPrompt asks the user for the service access key. It runs inside the
// acquisition timeout and must honor ctx cancellation where it can.
type SecretPrompt func(ctx context.Context) (string, error)

// HTTPProvider exchanges a user-supplied access key for a bearer token at
// the service's token endpoint and keeps it in memory. Nothing is persisted:
// a restart requires a reconnect.
type HTTPProvider struct {
	authURL string
	httpc   *http.Client
	prompt  SecretPrompt
	clock   clockwork.Clock

	mu      sync.Mutex
	current Token
}

func NewHTTPProvider(authURL string, httpc *http.Client, prompt SecretPrompt, clock clockwork.Clock) *HTTPProvider {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HTTPProvider{authURL: authURL, httpc: httpc, prompt: prompt, clock: clock}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Acquire prompts for the access key and exchanges it for a bearer token.
// The whole interaction is bounded by AcquireTimeout.
func (p *HTTPProvider) Acquire(ctx context.Context) (Token, error) {
	ctx, cancel := context.WithTimeout(ctx, AcquireTimeout)
	defer cancel()

	secret, err := p.prompt(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Token{}, fmt.Errorf("authorization timed out; try connecting again")
		}
		return Token{}, fmt.Errorf("reading access key: %w", err)
	}

	body, err := json.Marshal(map[string]string{"grant_type": "access_key", "access_key": secret})
	if err != nil {
		return Token{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL+"/token", bytes.NewReader(body))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Token{}, fmt.Errorf("authorization timed out; try connecting again")
		}
		return Token{}, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token exchange failed: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, fmt.Errorf("token exchange failed: %w", err)
	}

	tok := Token{
		AccessToken: tr.AccessToken,
		Expiry:      p.expiryOf(tr),
	}

	p.mu.Lock()
	p.current = tok
	p.mu.Unlock()
	return tok, nil
}

// expiryOf prefers the exp claim when the token is a JWT (no signature
// verification needed to read it), falling back to expires_in.
func (p *HTTPProvider) expiryOf(tr tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if tr.ExpiresIn > 0 {
		return p.clock.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	// No expiry information at all: assume an hour.
	return p.clock.Now().Add(time.Hour)
}

func (p *HTTPProvider) AccessToken() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current.AccessToken == "" || !p.clock.Now().Before(p.current.Expiry.Add(-expiryLeeway)) {
		return "", ErrNoToken
	}
	return p.current.AccessToken, nil
}

func (p *HTTPProvider) Valid() bool {
	_, err := p.AccessToken()
	return err == nil
}

// Revoke drops the held token and tells the service to invalidate it.
// The remote call is best-effort: the local drop alone already disconnects
// this device.
func (p *HTTPProvider) Revoke() {
	p.mu.Lock()
	tok := p.current
	p.current = Token{}
	p.mu.Unlock()

	if tok.AccessToken == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"token": tok.AccessToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL+"/revoke", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if resp, err := p.httpc.Do(req); err == nil {
		resp.Body.Close()
	}
}
