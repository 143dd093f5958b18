package feed

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/itsm-lab/halosync/pkg/domain/model"
	"github.com/itsm-lab/halosync/pkg/domain/types"
)

// assemble builds the canonical record from canonically-keyed cell values.
// present reports whether the source file carries a column for the field;
// a required column that is absent fails the row, not the file.
func assemble(values map[string]string, present func(name string) bool) (*model.Action, error) {
	for _, f := range fields {
		if f.Required && !present(f.Name) {
			return nil, goerr.New("missing required column", goerr.V("field", f.Name))
		}
	}

	ticketID, err := coerceTicketID(values[fieldTicketID])
	if err != nil {
		return nil, err
	}

	ts, err := ParseActionDate(values[fieldActionDate])
	if err != nil {
		return nil, err
	}

	a := model.NewAction(
		ticketID,
		ts,
		strings.TrimSpace(values[fieldOutcome]),
		values[fieldNote],
		values[fieldWho],
		types.ActionID(strings.TrimSpace(values[fieldActionID])),
	)

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// coerceTicketID accepts both integer and float spellings; spreadsheet cells
// often carry "123" as "123.0".
func coerceTicketID(value string) (types.TicketID, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, goerr.New("ticket ID is empty")
	}

	if n, err := strconv.ParseUint(cleaned, 10, 32); err == nil {
		return types.TicketID(n), nil
	}

	if f, err := strconv.ParseFloat(cleaned, 64); err == nil && f > 0 {
		return types.TicketID(uint32(f)), nil
	}

	return 0, goerr.New("ticket ID is not numeric", goerr.V("value", value))
}

// rowError wraps a per-row failure with enough context to diagnose schema
// drift without rerunning: position, the headers seen, and the raw cells.
func rowError(err error, fileName string, rowNum int, headers []string, values map[string]string) error {
	return goerr.Wrap(err, "failed to normalize row",
		goerr.T(types.TagBadRecord),
		goerr.V("file", fileName),
		goerr.V("row", rowNum),
		goerr.V("headers", headers),
		goerr.V("fields", values),
	)
}
