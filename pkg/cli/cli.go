package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/itsm-lab/halosync/pkg/cli/config"
	"github.com/itsm-lab/halosync/pkg/utils/logging"
)

// Run executes the halosync command tree
func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "halosync",
		Usage:   "Reconcile and import ticket actions from flat files into a Halo instance",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting halosync", "logger", &loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdImport(),
			cmdInspect(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
