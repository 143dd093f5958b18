package model

import (
	"time"

	"github.com/itsm-lab/halosync/pkg/domain/types"
)

// Failure records one record that could not be imported
type Failure struct {
	ActionID types.ActionID
	Message  string
}

// ImportStats is the per-file processing result
type ImportStats struct {
	FileName  string
	Processed int
	Imported  int
	Skipped   int
	Failed    []Failure
}

// AddFailure appends a failed record to the stats
func (x *ImportStats) AddFailure(id types.ActionID, msg string) {
	x.Failed = append(x.Failed, Failure{ActionID: id, Message: msg})
}

// Summary aggregates the outcome of a whole run
type Summary struct {
	Processed       int
	Imported        int
	Skipped         int
	Failed          []Failure
	UnreadableFiles []string
	Runtime         time.Duration
	FileDurations   []time.Duration
}

// Absorb merges one file's stats into the summary
func (s *Summary) Absorb(stats *ImportStats) {
	s.Processed += stats.Processed
	s.Imported += stats.Imported
	s.Skipped += stats.Skipped
	s.Failed = append(s.Failed, stats.Failed...)
}
