package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/itsm-lab/halosync/pkg/feed"
)

// cmdInspect parses files without any remote interaction, for diagnosing
// schema drift before a real run.
func cmdInspect() *cli.Command {
	var aliasConfig string

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Parse input files and report per-row outcomes without submitting",
		ArgsUsage: "FILE [FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "alias-config",
				Usage:       "TOML file adding header aliases to the built-in table",
				Sources:     cli.EnvVars("HALOSYNC_ALIAS_CONFIG"),
				Destination: &aliasConfig,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("at least one file is required")
			}

			var opts []feed.Option
			if aliasConfig != "" {
				aliases, err := feed.LoadAliases(aliasConfig)
				if err != nil {
					return err
				}
				opts = append(opts, feed.WithAliases(aliases))
			}

			for _, path := range c.Args().Slice() {
				src, err := feed.Open(path, opts...)
				if err != nil {
					return goerr.Wrap(err, "failed to open file", goerr.V("path", path))
				}

				headingColor.Printf("%s (%s rows)\n", src.Name(), formatNumber(src.TotalRows()))

				var valid, bad int
				for a, err := range src.Records() {
					if err != nil {
						bad++
						failColor.Printf("  row error: %v\n", err)
						continue
					}
					valid++
					ts := "-"
					if a.Timestamp != nil {
						ts = a.Timestamp.Format("2006-01-02 15:04:05")
					}
					fmt.Printf("  action %s: ticket %d, who %q, date %s\n", a.ActionID, a.TicketID, a.Who, ts)
				}

				okColor.Printf("  %s valid, %s failed\n", formatNumber(valid), formatNumber(bad))
			}

			return nil
		},
	}
}
