package interfaces

import (
	"context"
	"iter"

	"github.com/itsm-lab/halosync/pkg/domain/model"
	"github.com/itsm-lab/halosync/pkg/domain/types"
)

// Reconciler collects the action IDs already present in the remote system
type Reconciler interface {
	// FetchExistingIDs unions identifiers across all configured report
	// resources. The result gates every skip decision of the run.
	FetchExistingIDs(ctx context.Context) (*types.IDSet, error)
}

// Submitter posts one canonical record to the ticketing API
type Submitter interface {
	Submit(ctx context.Context, action *model.Action) error
}

// RecordSource yields canonical records from one input file. Per-row
// normalization failures are yielded as errors without ending the sequence.
type RecordSource interface {
	// Name returns the display name of the underlying file
	Name() string

	// TotalRows returns the number of data rows, counted before the data pass
	TotalRows() int

	// Records iterates the rows in input order
	Records() iter.Seq2[*model.Action, error]
}
