package types

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// ActionID is the external identifier that deduplicates imported actions.
// It is kept as opaque text throughout the pipeline; the wire layer converts
// it to the numeric custom-field value on submission.
type ActionID string

// String returns the string representation of the action ID
func (x ActionID) String() string {
	return string(x)
}

// Validate checks if the action ID is usable as a dedup key
func (x ActionID) Validate() error {
	if x == "" {
		return goerr.New("action ID is empty")
	}
	return nil
}

// Numeric converts the action ID to the numeric value expected by the
// remote custom-field schema.
func (x ActionID) Numeric() (uint32, error) {
	n, err := strconv.ParseUint(string(x), 10, 32)
	if err != nil {
		return 0, goerr.Wrap(err, "action ID is not numeric", goerr.V("action_id", string(x)))
	}
	return uint32(n), nil
}

// TicketID identifies the parent ticket in the remote system
type TicketID uint32

// Validate checks if the ticket ID is valid
func (x TicketID) Validate() error {
	if x == 0 {
		return goerr.New("ticket ID must be positive")
	}
	return nil
}
