package model

import (
	"time"

	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultOutcome is used when the source row does not supply an outcome
const DefaultOutcome = "Imported Note"

// Action is the canonical record every input row is normalized into before
// dedup and submission. Immutable once built.
type Action struct {
	TicketID types.TicketID
	// Timestamp is the dated event of the action, if any. Naive wall-clock
	// time; the wire layer anchors it to the capture zone.
	Timestamp *time.Time
	Outcome   string
	Note      string
	Who       string
	ActionID  types.ActionID
}

// NewAction builds a canonical record, applying the outcome default
func NewAction(ticketID types.TicketID, ts *time.Time, outcome, note, who string, actionID types.ActionID) *Action {
	if outcome == "" {
		outcome = DefaultOutcome
	}
	return &Action{
		TicketID:  ticketID,
		Timestamp: ts,
		Outcome:   outcome,
		Note:      note,
		Who:       who,
		ActionID:  actionID,
	}
}

// Validate checks the required fields of the record
func (x *Action) Validate() error {
	if err := x.TicketID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid ticket ID")
	}
	if err := x.ActionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid action ID")
	}
	if x.Who == "" {
		return goerr.New("action performer is required", goerr.V("action_id", x.ActionID))
	}
	return nil
}
