package config

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/itsm-lab/halosync/pkg/domain/model"
	"github.com/itsm-lab/halosync/pkg/feed"
	"github.com/itsm-lab/halosync/pkg/service/action"
	"github.com/itsm-lab/halosync/pkg/service/auth"
	"github.com/itsm-lab/halosync/pkg/service/report"
)

// tokenPath is the identity endpoint under the base resource URL
const tokenPath = "auth/token"

// Endpoint holds the remote ticketing service configuration
type Endpoint struct {
	baseURL             string
	clientID            string
	clientSecret        string
	reportPaths         []string
	customFieldID       int
	submitDelay         time.Duration
	retryCooldown       time.Duration
	maxTransientRetries int
	aliasConfig         string
}

// Flags returns CLI flags for the endpoint configuration
func (x *Endpoint) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base resource URL of the ticketing service (required)",
			Required:    true,
			Sources:     cli.EnvVars("HALOSYNC_BASE_URL"),
			Destination: &x.baseURL,
		},
		&cli.StringFlag{
			Name:        "client-id",
			Usage:       "OAuth2 client ID (required)",
			Required:    true,
			Sources:     cli.EnvVars("HALOSYNC_CLIENT_ID"),
			Destination: &x.clientID,
		},
		&cli.StringFlag{
			Name:        "client-secret",
			Usage:       "OAuth2 client secret (required)",
			Required:    true,
			Sources:     cli.EnvVars("HALOSYNC_CLIENT_SECRET"),
			Destination: &x.clientSecret,
		},
		&cli.StringSliceFlag{
			Name:        "report-path",
			Usage:       "Report resource path(s) listing existing action IDs (required, repeatable)",
			Required:    true,
			Sources:     cli.EnvVars("HALOSYNC_REPORT_PATH"),
			Destination: &x.reportPaths,
		},
		&cli.IntFlag{
			Name:        "custom-field-id",
			Usage:       "Custom field ID storing the external action ID (required)",
			Required:    true,
			Sources:     cli.EnvVars("HALOSYNC_CUSTOM_FIELD_ID"),
			Destination: &x.customFieldID,
		},
		&cli.DurationFlag{
			Name:        "submit-delay",
			Usage:       "Minimum delay before each submission",
			Value:       action.DefaultSubmitDelay,
			Sources:     cli.EnvVars("HALOSYNC_SUBMIT_DELAY"),
			Destination: &x.submitDelay,
		},
		&cli.DurationFlag{
			Name:        "retry-cooldown",
			Usage:       "Wait between retries after a gateway failure",
			Value:       report.DefaultCooldown,
			Sources:     cli.EnvVars("HALOSYNC_RETRY_COOLDOWN"),
			Destination: &x.retryCooldown,
		},
		&cli.IntFlag{
			Name:        "max-transient-retries",
			Usage:       "Retry ceiling per report resource on gateway failures",
			Value:       report.DefaultMaxTransientRetries,
			Sources:     cli.EnvVars("HALOSYNC_MAX_TRANSIENT_RETRIES"),
			Destination: &x.maxTransientRetries,
		},
		&cli.StringFlag{
			Name:        "alias-config",
			Usage:       "TOML file adding header aliases to the built-in table",
			Sources:     cli.EnvVars("HALOSYNC_ALIAS_CONFIG"),
			Destination: &x.aliasConfig,
		},
	}
}

// Validate checks the endpoint configuration
func (x *Endpoint) Validate() error {
	u, err := url.Parse(x.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return goerr.Wrap(ErrInvalidEndpoint, "base URL must be absolute", goerr.V("url", x.baseURL))
	}
	if x.customFieldID <= 0 {
		return goerr.Wrap(ErrInvalidEndpoint, "custom field ID must be positive", goerr.V("custom_field_id", x.customFieldID))
	}
	if x.maxTransientRetries < 0 {
		return goerr.Wrap(ErrInvalidEndpoint, "max transient retries must not be negative")
	}
	return nil
}

// LogAttrs returns log attributes for the configuration (secret hidden)
func (x *Endpoint) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("base_url", x.baseURL),
		slog.String("client_id", x.clientID),
		slog.Any("report_paths", x.reportPaths),
		slog.Int("custom_field_id", x.customFieldID),
		slog.Duration("submit_delay", x.submitDelay),
		slog.Duration("retry_cooldown", x.retryCooldown),
		slog.Int("max_transient_retries", x.maxTransientRetries),
	}
}

// Clients bundles the configured service clients
type Clients struct {
	Auth   *auth.Client
	Report *report.Client
	Action *action.Client
}

// Configure validates the endpoint configuration and builds the service
// clients plus the feed options.
func (x *Endpoint) Configure() (*Clients, []feed.Option, error) {
	if err := x.Validate(); err != nil {
		return nil, nil, err
	}

	authClient, err := auth.New(x.resolve(tokenPath), x.clientID, x.clientSecret)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create auth client")
	}

	reportURLs := make([]string, 0, len(x.reportPaths))
	for _, p := range x.reportPaths {
		reportURLs = append(reportURLs, x.resolve(strings.TrimSpace(p)))
	}
	reportClient, err := report.New(authClient, reportURLs,
		report.WithCooldown(x.retryCooldown),
		report.WithMaxTransientRetries(x.maxTransientRetries),
	)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create report client")
	}

	encoder := model.NewWireEncoder(uint32(x.customFieldID))
	actionClient, err := action.New(authClient, x.baseURL, encoder,
		action.WithSubmitDelay(x.submitDelay),
	)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create action client")
	}

	feedOpts, err := x.FeedOptions()
	if err != nil {
		return nil, nil, err
	}

	return &Clients{
		Auth:   authClient,
		Report: reportClient,
		Action: actionClient,
	}, feedOpts, nil
}

// FeedOptions loads the optional alias extension file
func (x *Endpoint) FeedOptions() ([]feed.Option, error) {
	if x.aliasConfig == "" {
		return nil, nil
	}
	aliases, err := feed.LoadAliases(x.aliasConfig)
	if err != nil {
		return nil, err
	}
	return []feed.Option{feed.WithAliases(aliases)}, nil
}

// resolve overrides the base URL's path with the given segment
func (x *Endpoint) resolve(path string) string {
	u, err := url.Parse(x.baseURL)
	if err != nil {
		// Validate catches this before resolve is reached
		return x.baseURL
	}
	u.Path = path
	return u.String()
}
