package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/itsm-lab/halosync/pkg/domain/interfaces"
	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/itsm-lab/halosync/pkg/utils/logging"
	"github.com/itsm-lab/halosync/pkg/utils/safe"
)

const (
	// DefaultCooldown is the wait between retries of a gateway-timeout class failure
	DefaultCooldown = 30 * time.Second
	// DefaultMaxTransientRetries bounds retries per resource so a degraded
	// upstream cannot hang a run forever.
	DefaultMaxTransientRetries = 10
)

// reportRow is one row of a report response. Each row carries a
// comma-delimited list of identifiers.
type reportRow struct {
	ExistingActionIDs string `json:"existingActionIds"`
}

// Client fetches the already-imported action IDs from one or more report
// resources and unions them.
type Client struct {
	httpClient          *http.Client
	tokens              interfaces.TokenSource
	resources           []string
	cooldown            time.Duration
	maxTransientRetries int
}

// Option is a functional option for client configuration
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCooldown sets the wait between transient-failure retries
func WithCooldown(d time.Duration) Option {
	return func(c *Client) {
		c.cooldown = d
	}
}

// WithMaxTransientRetries sets the per-resource retry ceiling
func WithMaxTransientRetries(n int) Option {
	return func(c *Client) {
		c.maxTransientRetries = n
	}
}

// New creates a report client over the given resources
func New(tokens interfaces.TokenSource, resources []string, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, goerr.New("token source is required")
	}
	if len(resources) == 0 {
		return nil, goerr.New("at least one report resource is required")
	}

	c := &Client{
		httpClient:          http.DefaultClient,
		tokens:              tokens,
		resources:           resources,
		cooldown:            DefaultCooldown,
		maxTransientRetries: DefaultMaxTransientRetries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchExistingIDs unions the identifiers across all configured resources
func (c *Client) FetchExistingIDs(ctx context.Context) (*types.IDSet, error) {
	existing := types.NewIDSet()

	for _, resource := range c.resources {
		ids, err := c.fetchResource(ctx, resource)
		if err != nil {
			return nil, err
		}
		existing.Union(ids)

		logging.From(ctx).Info("Reconciled report resource",
			"resource", resource,
			"ids", ids.Len(),
			"total", existing.Len(),
		)
	}

	return existing, nil
}

func (c *Client) fetchResource(ctx context.Context, resource string) (*types.IDSet, error) {
	var transientRetries int
	var unauthorizedOnce bool

	for {
		token, err := c.tokens.GetValidToken(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to obtain token for report fetch", goerr.V("resource", resource))
		}

		status, body, err := c.get(ctx, resource, token)
		if err != nil {
			return nil, err
		}

		switch {
		case isGatewayFailure(status):
			if transientRetries >= c.maxTransientRetries {
				return nil, goerr.New("report resource persistently unavailable",
					goerr.T(types.TagTransient),
					goerr.V("resource", resource),
					goerr.V("status", status),
					goerr.V("retries", transientRetries),
				)
			}
			transientRetries++
			logging.From(ctx).Warn("Gateway failure on report fetch, backing off",
				"resource", resource,
				"status", status,
				"retry", transientRetries,
				"cooldown", c.cooldown,
			)
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
			c.tokens.Invalidate()
			continue

		case status == http.StatusUnauthorized:
			if unauthorizedOnce {
				return nil, goerr.Wrap(types.ErrAuthExpired, "report fetch unauthorized after refresh",
					goerr.V("resource", resource))
			}
			unauthorizedOnce = true
			c.tokens.Invalidate()
			continue

		case status < 200 || status >= 300:
			return nil, goerr.New("report request failed",
				goerr.T(types.TagRemote),
				goerr.V("resource", resource),
				goerr.V("status", status),
				goerr.V("body", excerpt(body)),
			)
		}

		return parseRows(resource, body)
	}
}

func (c *Client) get(ctx context.Context, resource, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
	if err != nil {
		return 0, nil, goerr.Wrap(err, "failed to build report request", goerr.V("resource", resource))
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, goerr.Wrap(err, "failed to send report request", goerr.V("resource", resource))
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, goerr.Wrap(err, "failed to read report response",
			goerr.V("resource", resource),
			goerr.V("status", resp.StatusCode),
		)
	}

	return resp.StatusCode, body, nil
}

func parseRows(resource string, body []byte) (*types.IDSet, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, goerr.Wrap(types.ErrEmptyReport, "report response has no body", goerr.V("resource", resource))
	}

	var rows []reportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, goerr.Wrap(err, "unparseable report response",
			goerr.T(types.TagProtocol),
			goerr.V("resource", resource),
			goerr.V("body", excerpt(body)),
		)
	}

	if len(rows) == 0 {
		return nil, goerr.Wrap(types.ErrEmptyReport, "no rows in report response", goerr.V("resource", resource))
	}

	ids := types.NewIDSet()
	for _, row := range rows {
		for _, raw := range strings.Split(row.ExistingActionIDs, ",") {
			id := strings.TrimSpace(raw)
			if id == "" {
				continue
			}
			ids.Add(types.ActionID(id))
		}
	}

	return ids, nil
}

func (c *Client) wait(ctx context.Context) error {
	timer := time.NewTimer(c.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "canceled while waiting out gateway failure")
	case <-timer.C:
		return nil
	}
}

func isGatewayFailure(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func excerpt(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
