package model

import (
	"encoding/json"
	"time"

	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// captureZone is the civil time zone action timestamps were captured in.
// The remote system expects UTC, so timestamps are anchored here and then
// converted on encoding.
var captureZone = time.FixedZone("UTC-7", -7*60*60)

const wireDatetimeFormat = "2006-01-02T15:04:05.000Z"

// wireAction is the JSON shape the ticketing API expects for one action.
// Key order follows the original endpoint contract: the actor and ticket ID
// are duplicated under two keys each, and __rowNum__/result are always null.
type wireAction struct {
	RowNum       *uint32           `json:"__rowNum__"`
	IsImport     bool              `json:"_isimport"`
	Datetime     *string           `json:"datetime,omitempty"`
	ActionWho    string            `json:"actionwho"`
	CFActionID   uint32            `json:"cfactionid"`
	CustomFields []wireCustomField `json:"customfields"`
	Note         string            `json:"note"`
	NoteHTML     string            `json:"note_html"`
	Outcome      string            `json:"outcome"`
	RequestID    types.TicketID    `json:"requestid"`
	Result       *string           `json:"result"`
	TicketID     types.TicketID    `json:"ticket_id"`
	Who          string            `json:"who"`
}

type wireCustomField struct {
	ID    uint32 `json:"id"`
	Value uint32 `json:"value"`
}

// WireEncoder encodes canonical records into the submission payload. It is
// bound to the custom-field ID the remote instance stores action IDs under.
type WireEncoder struct {
	customFieldID uint32
}

// NewWireEncoder creates an encoder for the configured custom field
func NewWireEncoder(customFieldID uint32) *WireEncoder {
	return &WireEncoder{customFieldID: customFieldID}
}

// Encode wraps one record in the single-element batch the API expects
func (e *WireEncoder) Encode(action *Action) ([]byte, error) {
	w, err := e.wire(action)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal([]*wireAction{w})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode action payload", goerr.V("action_id", action.ActionID))
	}
	return body, nil
}

func (e *WireEncoder) wire(action *Action) (*wireAction, error) {
	actionID, err := action.ActionID.Numeric()
	if err != nil {
		return nil, goerr.Wrap(err, "action ID cannot be encoded as custom-field value", goerr.T(types.TagBadRecord))
	}

	w := &wireAction{
		IsImport:   true,
		ActionWho:  action.Who,
		CFActionID: actionID,
		CustomFields: []wireCustomField{
			{ID: e.customFieldID, Value: actionID},
		},
		Note:      action.Note,
		NoteHTML:  action.Note,
		Outcome:   action.Outcome,
		RequestID: action.TicketID,
		TicketID:  action.TicketID,
		Who:       action.Who,
	}

	if action.Timestamp != nil {
		t := *action.Timestamp
		anchored := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), captureZone)
		s := anchored.UTC().Format(wireDatetimeFormat)
		w.Datetime = &s
	}

	return w, nil
}
