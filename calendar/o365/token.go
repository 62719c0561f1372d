package o365

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultAuthHost = "https://login.windows.net"

// Credentials identify the registered application against the identity
// provider. Resource is the audience the tokens are minted for, Tenant the
// directory domain used by app-only grants.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Resource     string
	Tenant       string
	AuthHost     string
}

func (c Credentials) host() string {
	if c.AuthHost != "" {
		return strings.TrimRight(c.AuthHost, "/")
	}
	return defaultAuthHost
}

func (c Credentials) refreshURL() string {
	return c.host() + "/common/oauth2/token"
}

func (c Credentials) appTokenURL() string {
	return c.host() + "/" + c.Tenant + "/oauth2/token?api-version=1.0"
}

// Token is the session's token state. It is owned by a TokenManager and
// only ever replaced as a whole.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// expirySkew refreshes slightly early so a token never expires mid-call.
const expirySkew = time.Minute

func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Add(expirySkew).Before(t.ExpiresAt)
}

// TokenSource yields a bearer token for one remote call.
type TokenSource interface {
	Bearer(context.Context) (string, error)
}

// StaticToken is a TokenSource around an already-acquired token, used for
// app-only contexts where AppToken was called up front.
type StaticToken string

func (t StaticToken) Bearer(context.Context) (string, error) {
	return string(t), nil
}

// TokenManager holds one session's token state and refreshes it on demand.
// The provider rotates refresh tokens on use, so refresh runs under a lock
// and never concurrently for the same session.
type TokenManager struct {
	mu    sync.Mutex
	creds Credentials
	tok   Token

	httpClient *http.Client
	now        func() time.Time
}

func NewTokenManager(creds Credentials, tok Token) *TokenManager {
	return &TokenManager{
		creds:      creds,
		tok:        tok,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
}

// Bearer returns a valid access token, performing a refresh-token grant
// first if the stored one expired. A failed refresh surfaces ErrAuthExpired;
// there is no retry, the next triggered run is the retry.
func (m *TokenManager) Bearer(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tok.Valid(m.now()) {
		return m.tok.AccessToken, nil
	}

	tok, err := m.refresh(ctx)
	if err != nil {
		return "", err
	}
	m.tok = tok
	return tok.AccessToken, nil
}

// Token returns a copy of the current token state so the platform session
// can persist a rotated refresh token.
func (m *TokenManager) Token() Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok
}

func (m *TokenManager) refresh(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", m.creds.ClientID)
	form.Set("client_secret", m.creds.ClientSecret)
	form.Set("resource", m.creds.Resource)
	form.Set("refresh_token", m.tok.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.creds.refreshURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Token{}, fmt.Errorf("%w: token endpoint responded with status %d: %s", ErrAuthExpired, resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, fmt.Errorf("%w: decoding token response: %v", ErrAuthExpired, err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("%w: token response has no access_token", ErrAuthExpired)
	}

	tok := Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    tr.expiresAt(m.now()),
	}
	if tok.RefreshToken == "" {
		// The provider does not always rotate the refresh token.
		tok.RefreshToken = m.tok.RefreshToken
	}
	return tok, nil
}

// AppToken acquires a token via the client-credentials grant against the
// tenant endpoint. The token is independent of any user session and is not
// stored in the manager.
func (m *TokenManager) AppToken(ctx context.Context) (string, error) {
	cfg := &clientcredentials.Config{
		ClientID:     m.creds.ClientID,
		ClientSecret: m.creds.ClientSecret,
		TokenURL:     m.creds.appTokenURL(),
		AuthStyle:    oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"resource": {m.creds.Resource},
			"state":    {uuid.NewString()},
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("o365: app token: %w", err)
	}
	return tok.AccessToken, nil
}

// tokenResponse is the identity endpoint's JSON body. expires_on arrives
// as unix seconds encoded as a string; expires_in is relative seconds.
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresOn    looseSecond `json:"expires_on"`
	ExpiresIn    looseSecond `json:"expires_in"`
}

func (tr tokenResponse) expiresAt(now time.Time) time.Time {
	if tr.ExpiresOn > 0 {
		return time.Unix(int64(tr.ExpiresOn), 0)
	}
	if tr.ExpiresIn > 0 {
		return now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// looseSecond is a second count the endpoint encodes either as a JSON
// number or as a quoted string, depending on the grant.
type looseSecond int64

func (n *looseSecond) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing second count %q: %w", s, err)
	}
	*n = looseSecond(v)
	return nil
}
