package action

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/itsm-lab/halosync/pkg/domain/interfaces"
	"github.com/itsm-lab/halosync/pkg/domain/model"
	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/itsm-lab/halosync/pkg/utils/logging"
	"github.com/itsm-lab/halosync/pkg/utils/safe"
)

// DefaultSubmitDelay is the courtesy pause before every submission
const DefaultSubmitDelay = 500 * time.Millisecond

// actionsPath is the action resource under the base URL
const actionsPath = "api/actions"

// Client posts canonical records to the ticketing API one at a time
type Client struct {
	httpClient  *http.Client
	tokens      interfaces.TokenSource
	endpoint    string
	encoder     *model.WireEncoder
	submitDelay time.Duration
}

// Option is a functional option for client configuration
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSubmitDelay sets the minimum inter-request delay
func WithSubmitDelay(d time.Duration) Option {
	return func(c *Client) {
		c.submitDelay = d
	}
}

// New creates a submitter for the action resource under baseURL
func New(tokens interfaces.TokenSource, baseURL string, encoder *model.WireEncoder, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, goerr.New("token source is required")
	}
	if encoder == nil {
		return nil, goerr.New("wire encoder is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid base resource URL", goerr.V("url", baseURL))
	}
	u.Path = actionsPath

	c := &Client{
		httpClient:  http.DefaultClient,
		tokens:      tokens,
		endpoint:    u.String(),
		encoder:     encoder,
		submitDelay: DefaultSubmitDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Submit posts one record, refreshing the token once if it was rejected.
// A second 401 in a row is terminal for the record.
func (c *Client) Submit(ctx context.Context, a *model.Action) error {
	if err := c.pause(ctx); err != nil {
		return err
	}

	body, err := c.encoder.Encode(a)
	if err != nil {
		return err
	}

	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to get token for submission", goerr.V("action_id", a.ActionID))
	}

	for attempt := 0; attempt < 2; attempt++ {
		status, respBody, err := c.post(ctx, body, token, a.ActionID)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized {
			if attempt > 0 {
				return goerr.Wrap(types.ErrAuthExpired, "submission unauthorized after refresh",
					goerr.V("action_id", a.ActionID))
			}
			logging.From(ctx).Warn("Submission unauthorized, refreshing token",
				"action_id", a.ActionID)
			c.tokens.Invalidate()
			token, err = c.tokens.GetValidToken(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to refresh token after 401", goerr.V("action_id", a.ActionID))
			}
			continue
		}

		if status < 200 || status >= 300 {
			return goerr.New("action submission rejected",
				goerr.T(types.TagRemote),
				goerr.V("action_id", a.ActionID),
				goerr.V("status", status),
				goerr.V("body", excerpt(respBody)),
			)
		}

		return nil
	}

	return goerr.Wrap(types.ErrAuthExpired, "submission did not succeed after token refresh",
		goerr.V("action_id", a.ActionID))
}

func (c *Client) post(ctx context.Context, body []byte, token string, id types.ActionID) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, goerr.Wrap(err, "failed to build submission request",
			goerr.V("action_id", id),
			goerr.V("endpoint", c.endpoint),
		)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, goerr.Wrap(err, "failed to send submission request",
			goerr.V("action_id", id),
			goerr.V("endpoint", c.endpoint),
		)
	}
	defer safe.Close(ctx, resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, goerr.Wrap(err, "failed to read submission response",
			goerr.V("action_id", id),
			goerr.V("status", resp.StatusCode),
		)
	}

	return resp.StatusCode, respBody, nil
}

func (c *Client) pause(ctx context.Context) error {
	if c.submitDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.submitDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "canceled before submission")
	case <-timer.C:
		return nil
	}
}

func excerpt(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
