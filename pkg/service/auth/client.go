package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"

	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/itsm-lab/halosync/pkg/utils/logging"
	"github.com/itsm-lab/halosync/pkg/utils/safe"
)

// DefaultSafetyMargin is subtracted from a token's stated expiry so a token
// is never used when it could expire mid-request.
const DefaultSafetyMargin = 30 * time.Second

// Client owns the current token and refreshes it lazily via a
// client-credentials exchange. Concurrent callers of GetValidToken observe
// at most one in-flight fetch.
type Client struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	margin       time.Duration
	now          func() time.Time

	mu      sync.Mutex
	current *Token
	group   singleflight.Group
}

// Option is a functional option for client configuration
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSafetyMargin sets the expiry safety margin
func WithSafetyMargin(margin time.Duration) Option {
	return func(c *Client) {
		c.margin = margin
	}
}

// WithClock replaces the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a token client for the given identity endpoint
func New(tokenURL, clientID, clientSecret string, opts ...Option) (*Client, error) {
	if tokenURL == "" {
		return nil, goerr.New("token endpoint URL is required")
	}
	if clientID == "" || clientSecret == "" {
		return nil, goerr.New("client credentials are required")
	}

	c := &Client{
		httpClient:   http.DefaultClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		margin:       DefaultSafetyMargin,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetValidToken returns the Authorization header value of a valid token,
// fetching a new one if none is held or the held one is near expiry.
func (c *Client) GetValidToken(ctx context.Context) (string, error) {
	if v, ok := c.cached(); ok {
		return v, nil
	}

	v, err, _ := c.group.Do("refresh", func() (any, error) {
		// Another caller may have installed a token while we waited
		if v, ok := c.cached(); ok {
			return v, nil
		}

		token, err := c.fetchToken(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.current = token
		c.mu.Unlock()

		logging.From(ctx).Info("Authentication successful",
			"token_type", token.TokenType,
			"expires_at", token.ExpiresAt,
		)
		return token.HeaderValue(), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next GetValidToken refreshes
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

func (c *Client) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ValidAt(c.now(), c.margin) {
		return c.current.HeaderValue(), true
	}
	return "", false
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) fetchToken(ctx context.Context) (*Token, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
		"scope":         {"all"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build token request", goerr.V("url", c.tokenURL))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send authentication request", goerr.V("url", c.tokenURL))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, goerr.Wrap(types.ErrAuthenticationFailed, "identity endpoint rejected credentials",
			goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read authentication response",
			goerr.V("status", resp.StatusCode))
	}

	// Some identity endpoints answer 200 with an OAuth error body
	var oauthErr errorResponse
	if err := json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Error != "" {
		return nil, goerr.Wrap(types.ErrAuthenticationFailed, "identity endpoint returned error",
			goerr.V("error", oauthErr.Error),
			goerr.V("description", oauthErr.ErrorDescription),
		)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return nil, goerr.New("unparseable token response",
			goerr.T(types.TagProtocol),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", excerpt(body)),
		)
	}

	return &Token{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   c.now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}, nil
}

func excerpt(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
