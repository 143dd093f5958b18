package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/itsm-lab/halosync/pkg/cli/config"
	"github.com/itsm-lab/halosync/pkg/usecase"
	"github.com/itsm-lab/halosync/pkg/utils/logging"
)

func cmdImport() *cli.Command {
	var inputDir string
	var parseOnly bool
	var endpointCfg config.Endpoint

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Directory holding the files to import",
			Value:       "input",
			Sources:     cli.EnvVars("HALOSYNC_INPUT"),
			Destination: &inputDir,
		},
		&cli.BoolFlag{
			Name:        "parse-only",
			Usage:       "Classify records without submitting anything",
			Sources:     cli.EnvVars("HALOSYNC_PARSE_ONLY"),
			Destination: &parseOnly,
		},
	}
	flags = append(flags, endpointCfg.Flags()...)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"run"},
		Usage:   "Import missing ticket actions from the input directory",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)
			logger.LogAttrs(ctx, slog.LevelInfo, "Import configuration",
				append(endpointCfg.LogAttrs(),
					slog.String("input", inputDir),
					slog.Bool("parse_only", parseOnly),
				)...,
			)
			if parseOnly {
				logger.Info("Parse-only mode: will skip API calls for imports")
			}

			clients, feedOpts, err := endpointCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure endpoint clients")
			}

			opts := []usecase.Option{usecase.WithFeedOptions(feedOpts...)}
			if !parseOnly {
				opts = append(opts, usecase.WithSubmitter(clients.Action))
			}
			uc := usecase.New(clients.Report, opts...)

			summary, err := uc.Run(ctx, inputDir)
			if err != nil {
				return goerr.Wrap(err, "import run failed")
			}

			renderSummary(summary, parseOnly)
			return nil
		},
	}
}
