package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/itsm-lab/halosync/pkg/domain/model"
	"github.com/itsm-lab/halosync/pkg/feed"
	"github.com/itsm-lab/halosync/pkg/utils/logging"
)

// Run sweeps the input directory: discover files, reconcile the existing
// identifier set, then process each file sequentially. A file that cannot
// be opened is recorded and skipped; reconciliation failure aborts the run
// before any submission, since skip decisions would be unsound without it.
func (uc *UseCases) Run(ctx context.Context, inputDir string) (*model.Summary, error) {
	logger := logging.From(ctx)
	start := time.Now()

	// Check for files before the potentially slow reconciliation
	files, err := feed.Discover(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, goerr.New("no input files found, nothing to process", goerr.V("dir", inputDir))
	}

	existing, err := uc.reconciler.FetchExistingIDs(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch existing action IDs")
	}
	logger.Info("Found existing action IDs to skip", "count", existing.Len())

	summary := &model.Summary{}
	for i, entry := range files {
		logger.Info("Starting file", "file", entry.Name, "position", i+1, "total", len(files))

		src, err := feed.Open(entry.Path, uc.feedOpts...)
		if err != nil {
			logger.Warn("Skipping unreadable file", "file", entry.Name, "error", err)
			summary.UnreadableFiles = append(summary.UnreadableFiles, entry.Name)
			continue
		}

		fileStart := time.Now()
		stats := uc.ImportFile(ctx, src, existing)
		summary.Absorb(stats)
		summary.FileDurations = append(summary.FileDurations, time.Since(fileStart))
	}

	summary.Runtime = time.Since(start)
	logger.Info("Run completed",
		"processed", summary.Processed,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
		"unreadable_files", len(summary.UnreadableFiles),
		"runtime", summary.Runtime,
	)

	return summary, nil
}
