package usecase

import (
	"context"

	"github.com/itsm-lab/halosync/pkg/domain/interfaces"
	"github.com/itsm-lab/halosync/pkg/domain/model"
	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/itsm-lab/halosync/pkg/utils/logging"
)

// unknownActionID labels failures of rows that never produced an action ID
const unknownActionID = types.ActionID("unknown")

// ImportFile processes one record source in input order: rows whose action
// ID is already known are skipped, the rest are submitted. Row-level
// failures are accumulated, never fatal for the file.
func (uc *UseCases) ImportFile(ctx context.Context, src interfaces.RecordSource, existing *types.IDSet) *model.ImportStats {
	logger := logging.From(ctx)
	stats := &model.ImportStats{FileName: src.Name()}

	logger.Info("Processing file", "file", src.Name(), "rows", src.TotalRows())

	for a, err := range src.Records() {
		if err != nil {
			logger.Error("Failed to normalize row", "file", src.Name(), "error", err)
			stats.AddFailure(unknownActionID, err.Error())
			continue
		}
		stats.Processed++

		if existing.Has(a.ActionID) {
			stats.Skipped++
			logger.Info("Skipped: action already exists", "action_id", a.ActionID)
			continue
		}

		if uc.submitter == nil {
			// parse-only: classify as would-import
			stats.Imported++
			continue
		}

		if err := uc.submitter.Submit(ctx, a); err != nil {
			logger.Error("Failed to import action", "action_id", a.ActionID, "error", err)
			stats.AddFailure(a.ActionID, err.Error())
			continue
		}

		stats.Imported++
		logger.Info("Imported action", "action_id", a.ActionID)
	}

	logger.Info("Completed file",
		"file", src.Name(),
		"processed", stats.Processed,
		"imported", stats.Imported,
		"skipped", stats.Skipped,
		"failed", len(stats.Failed),
	)

	return stats
}
