package usecase

import (
	"github.com/itsm-lab/halosync/pkg/domain/interfaces"
	"github.com/itsm-lab/halosync/pkg/feed"
)

// UseCases drives the synchronization run: reconcile existing IDs, then
// process files strictly sequentially.
type UseCases struct {
	reconciler interfaces.Reconciler
	// submitter is nil in parse-only mode: records are classified without
	// touching the remote API.
	submitter interfaces.Submitter
	feedOpts  []feed.Option
}

// Option is a functional option for UseCases configuration
type Option func(*UseCases)

// WithSubmitter enables submission of records not present remotely
func WithSubmitter(s interfaces.Submitter) Option {
	return func(uc *UseCases) {
		uc.submitter = s
	}
}

// WithFeedOptions configures how input files are opened
func WithFeedOptions(opts ...feed.Option) Option {
	return func(uc *UseCases) {
		uc.feedOpts = opts
	}
}

// New creates the use cases around a reconciler
func New(reconciler interfaces.Reconciler, opts ...Option) *UseCases {
	uc := &UseCases{
		reconciler: reconciler,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
